// ABOUTME: Entry point for the study-buddy MCP server
// ABOUTME: Serves flashcard tools over MCP with Supabase OAuth token validation

package main

import (
	"bufio"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/2389/study-buddy/internal/config"
	"github.com/2389/study-buddy/internal/server"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
     _             _         _               _     _
 ___| |_ _   _  __| |_   _  | |__  _   _  __| | __| |_   _
/ __| __| | | |/ _' | | | | | '_ \| | | |/ _' |/ _' | | | |
\__ \ |_| |_| | (_| | |_| | | |_) | |_| | (_| | (_| | |_| |
|___/\__|\__,_|\__,_|\__, | |_.__/ \__,_|\__,_|\__,_|\__, |
                     |___/                           |___/
`

// getConfigPath returns the path to the config file.
// Priority: STUDY_BUDDY_CONFIG env var > XDG_CONFIG_HOME/study-buddy/config.yaml > ~/.config/study-buddy/config.yaml
func getConfigPath() string {
	if envPath := os.Getenv("STUDY_BUDDY_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "study-buddy", "config.yaml")
}

// getDataPath returns the path to the study-buddy data directory.
// Priority: XDG_DATA_HOME/study-buddy > ~/.local/share/study-buddy
func getDataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "study-buddy")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: study-buddy <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve    Start the MCP server")
		fmt.Println("  init     Create a new config file interactively")
		fmt.Println("  token    Mint a development access token and print its JWKS")
		fmt.Println("  health   Check server health")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit()
	case "token":
		err = runToken()
	case "health":
		err = runHealth(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	// Print banner
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	// Version info
	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup logger
	logger := setupLogger(cfg.Logging)

	// Startup info
	green := color.New(color.FgGreen)

	green.Print("    ▶ ")
	fmt.Printf("Config:     %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:       %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("Public URL: %s\n", cfg.Server.PublicURL)
	green.Print("    ▶ ")
	fmt.Printf("Store:      %s\n", cfg.Store.Driver)
	green.Print("    ▶ ")
	fmt.Printf("Issuer:     %s/auth/v1\n", strings.TrimRight(cfg.Supabase.URL, "/"))

	fmt.Println()

	logger.Info("starting study-buddy",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
		"environment", cfg.Environment,
	)

	// Create and run server
	srv, err := server.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return srv.Run(ctx)
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = &colorHandler{
			level: level,
		}
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// colorHandler provides colorized log output with thread-safe writes.
type colorHandler struct {
	mu     sync.Mutex
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf strings.Builder

	// Format timestamp
	buf.WriteString(color.HiBlackString(r.Time.Format("15:04:05") + " "))

	// Colorize level
	switch r.Level {
	case slog.LevelDebug:
		buf.WriteString(color.MagentaString("DBG "))
	case slog.LevelInfo:
		buf.WriteString(color.CyanString("INF "))
	case slog.LevelWarn:
		buf.WriteString(color.YellowString("WRN "))
	case slog.LevelError:
		buf.WriteString(color.New(color.FgRed, color.Bold).Sprint("ERR "))
	default:
		buf.WriteString("??? ")
	}

	// Print message
	buf.WriteString(r.Message)

	// Print handler-level attrs first (from WithAttrs)
	for _, a := range h.attrs {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
	}

	// Print record attrs
	r.Attrs(func(a slog.Attr) bool {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
		return true
	})

	buf.WriteString("\n")
	fmt.Print(buf.String())
	return nil
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	newAttrs = append(newAttrs, attrs...)
	return &colorHandler{
		level:  h.level,
		attrs:  newAttrs,
		groups: h.groups,
	}
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	newGroups := make([]string, len(h.groups), len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups = append(newGroups, name)
	return &colorHandler{
		level:  h.level,
		attrs:  h.attrs,
		groups: newGroups,
	}
}

func runHealth(ctx context.Context) error {
	configPath := getConfigPath()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Make HTTP request to health endpoint with context
	url := fmt.Sprintf("http://%s/healthz", cfg.Server.HTTPAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Println("healthy")
	return nil
}

// devKeyID identifies the local signing key in the printed JWKS.
const devKeyID = "dev-key-1"

// runToken mints a short-lived ES256 access token signed by a locally
// persisted key and prints the matching JWKS document. Pointing a stub
// issuer at that JWKS lets the full validation path run without a hosted
// Supabase project.
func runToken() error {
	configPath := getConfigPath()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	key, err := loadOrCreateDevKey()
	if err != nil {
		return err
	}

	issuer := strings.TrimRight(cfg.Supabase.URL, "/") + "/auth/v1"
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"iss":   issuer,
		"aud":   "authenticated",
		"sub":   uuid.New().String(),
		"email": "dev@localhost",
		"iat":   now.Unix(),
		"exp":   now.Add(24 * time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	token.Header["kid"] = devKeyID

	signed, err := token.SignedString(key)
	if err != nil {
		return fmt.Errorf("signing token: %w", err)
	}

	jwks, err := devJWKS(&key.PublicKey)
	if err != nil {
		return err
	}

	green := color.New(color.FgGreen)
	cyan := color.New(color.FgCyan)

	cyan.Println("  Development token")
	cyan.Println("  -----------------")
	fmt.Printf("  Issuer:  %s\n", issuer)
	fmt.Printf("  Expires: %s\n", now.Add(24*time.Hour).Format(time.RFC3339))
	fmt.Println()
	green.Println("  Token:")
	fmt.Printf("  %s\n", signed)
	fmt.Println()
	green.Println("  JWKS (serve at <issuer>/.well-known/jwks.json):")
	fmt.Printf("  %s\n", jwks)

	return nil
}

// loadOrCreateDevKey reads the persisted development signing key, creating
// one on first use so repeated invocations share a JWKS.
func loadOrCreateDevKey() (*ecdsa.PrivateKey, error) {
	keyPath := filepath.Join(getDataPath(), "dev-signing-key.pem")

	if data, err := os.ReadFile(keyPath); err == nil {
		block, _ := pem.Decode(data)
		if block == nil {
			return nil, fmt.Errorf("parsing %s: not a PEM file", keyPath)
		}
		key, err := x509.ParseECPrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", keyPath, err)
		}
		return key, nil
	}

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating key: %w", err)
	}

	der, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("encoding key: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(keyPath), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	data := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der})
	if err := os.WriteFile(keyPath, data, 0600); err != nil {
		return nil, fmt.Errorf("writing key file: %w", err)
	}

	return key, nil
}

// devJWKS renders the public half of the development key as a JWKS document.
func devJWKS(pub *ecdsa.PublicKey) (string, error) {
	size := (pub.Curve.Params().BitSize + 7) / 8
	x := pub.X.FillBytes(make([]byte, size))
	y := pub.Y.FillBytes(make([]byte, size))

	doc := map[string]any{
		"keys": []map[string]string{{
			"kty": "EC",
			"crv": "P-256",
			"alg": "ES256",
			"use": "sig",
			"kid": devKeyID,
			"x":   base64.RawURLEncoding.EncodeToString(x),
			"y":   base64.RawURLEncoding.EncodeToString(y),
		}},
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encoding JWKS: %w", err)
	}
	return string(data), nil
}

func runInit() error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("study-buddy configuration setup")
	fmt.Println("===============================")
	fmt.Println()

	// Default paths
	defaultConfigPath := getConfigPath()
	defaultDataPath := getDataPath()
	defaultDbPath := filepath.Join(defaultDataPath, "study-buddy.db")

	// Output filename
	outputFile := prompt(reader, "Config file path", defaultConfigPath)

	// Check if file exists
	if _, err := os.Stat(outputFile); err == nil {
		overwrite := prompt(reader, "File exists. Overwrite?", "no")
		if strings.ToLower(overwrite) != "yes" && strings.ToLower(overwrite) != "y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	// Server configuration
	fmt.Println("\n--- Server Configuration ---")
	httpAddr := prompt(reader, "HTTP address", "localhost:8080")
	publicURL := prompt(reader, "Public URL", "http://localhost:8080")

	// Supabase project
	fmt.Println("\n--- Supabase Configuration ---")
	supabaseURL := prompt(reader, "Supabase project URL", "https://your-project.supabase.co")
	anonKey := prompt(reader, "Supabase anon key (leave empty to read SUPABASE_ANON_KEY)", "")

	// Storage
	fmt.Println("\n--- Storage Configuration ---")
	driver := prompt(reader, "Store driver (sqlite/supabase)", "sqlite")
	var dbPath string
	if driver == "sqlite" {
		dbPath = prompt(reader, "SQLite database path", defaultDbPath)
	}

	// Logging
	fmt.Println("\n--- Logging Configuration ---")
	logLevel := prompt(reader, "Log level (debug/info/warn/error)", "info")
	logFormat := prompt(reader, "Log format (text/json)", "text")

	// Generate config
	var cfg strings.Builder
	cfg.WriteString("# study-buddy configuration\n")
	cfg.WriteString("# Generated by study-buddy init\n\n")

	cfg.WriteString("server:\n")
	cfg.WriteString(fmt.Sprintf("  http_addr: %q\n", httpAddr))
	cfg.WriteString(fmt.Sprintf("  public_url: %q\n", publicURL))
	cfg.WriteString("\n")

	cfg.WriteString("environment: \"development\"\n\n")

	cfg.WriteString("supabase:\n")
	cfg.WriteString(fmt.Sprintf("  url: %q\n", supabaseURL))
	if anonKey != "" {
		cfg.WriteString(fmt.Sprintf("  anon_key: %q\n", anonKey))
	} else {
		cfg.WriteString("  anon_key: \"${SUPABASE_ANON_KEY}\"\n")
	}
	cfg.WriteString("\n")

	cfg.WriteString("store:\n")
	cfg.WriteString(fmt.Sprintf("  driver: %q\n", driver))
	if dbPath != "" {
		cfg.WriteString(fmt.Sprintf("  path: %q\n", dbPath))
	}
	cfg.WriteString("\n")

	cfg.WriteString("logging:\n")
	cfg.WriteString(fmt.Sprintf("  level: %q\n", logLevel))
	cfg.WriteString(fmt.Sprintf("  format: %q\n", logFormat))

	// Ensure config directory exists
	configDir := filepath.Dir(outputFile)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	// Write config file
	if err := os.WriteFile(outputFile, []byte(cfg.String()), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	// Ensure data directory exists
	if dbPath != "" {
		dataDir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
		fmt.Printf("\nData directory: %s\n", dataDir)
	}

	fmt.Printf("\nConfig written to %s\n", outputFile)
	fmt.Println("\nTo start the server:")
	fmt.Printf("  study-buddy serve\n")

	return nil
}

func prompt(reader *bufio.Reader, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", question, defaultVal)
	} else {
		fmt.Printf("%s: ", question)
	}

	input, err := reader.ReadString('\n')
	if err != nil {
		// On EOF or error, return default
		fmt.Println()
		return defaultVal
	}
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultVal
	}
	return input
}
