package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"gighub/pkg/models"
)

const defaultBaseURL = "http://localhost:8080"

type tokenData struct {
	Token string `json:"token"`
}

type authResponse struct {
	Token string `json:"token"`
}

type eventListResponse struct {
	Total  int                     `json:"total"`
	Limit  int                     `json:"limit"`
	Offset int                     `json:"offset"`
	Items  []models.EventWithVenue `json:"items"`
}

func main() {
	global := flag.NewFlagSet("gighub", flag.ExitOnError)
	baseURL := global.String("api", defaultBaseURL, "API base URL")
	tokenPath := global.String("token", defaultTokenPath(), "token file path")
	if err := global.Parse(os.Args[1:]); err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	args := global.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()
	cmd := args[0]
	sub := ""
	if len(args) > 1 {
		sub = args[1]
	}

	client := &http.Client{Timeout: 15 * time.Second}

	switch cmd {
	case "auth":
		handleAuth(ctx, client, *baseURL, *tokenPath, sub, args[2:])
	case "events":
		handleEvents(ctx, client, *baseURL, sub, args[2:])
	case "sync":
		handleSync(ctx, client, *baseURL, *tokenPath, sub, args[2:])
	case "follows":
		handleFollows(ctx, client, *baseURL, *tokenPath, sub, args[2:])
	case "wallet":
		handleWallet(ctx, client, *baseURL, *tokenPath, sub, args[2:])
	case "feed":
		handleFeed(*baseURL, sub, args[2:])
	case "notify":
		handleNotify(sub, args[2:])
	case "export":
		handleExport(ctx, client, *baseURL, sub, args[2:])
	default:
		printUsage()
		os.Exit(1)
	}
}

func handleAuth(ctx context.Context, client *http.Client, baseURL, tokenPath, sub string, args []string) {
	switch sub {
	case "login":
		fs := flag.NewFlagSet("auth login", flag.ExitOnError)
		email := fs.String("email", "", "email address")
		password := fs.String("password", "", "password")
		_ = fs.Parse(args)

		if *email == "" || *password == "" {
			log.Fatal("email and password are required")
		}

		payload := map[string]string{"email": *email, "password": *password}
		var resp authResponse
		if err := doJSON(ctx, client, http.MethodPost, baseURL+"/auth/login", "", payload, &resp); err != nil {
			log.Fatalf("login failed: %v", err)
		}
		if err := saveToken(tokenPath, resp.Token); err != nil {
			log.Fatalf("save token: %v", err)
		}
		fmt.Println("logged in")
	case "register":
		fs := flag.NewFlagSet("auth register", flag.ExitOnError)
		username := fs.String("username", "", "username")
		email := fs.String("email", "", "email address")
		password := fs.String("password", "", "password")
		_ = fs.Parse(args)

		if *username == "" || *email == "" || *password == "" {
			log.Fatal("username, email, and password are required")
		}

		payload := map[string]string{"username": *username, "email": *email, "password": *password}
		var resp authResponse
		if err := doJSON(ctx, client, http.MethodPost, baseURL+"/auth/register", "", payload, &resp); err != nil {
			log.Fatalf("register failed: %v", err)
		}
		if err := saveToken(tokenPath, resp.Token); err != nil {
			log.Fatalf("save token: %v", err)
		}
		fmt.Println("registered and logged in")
	case "logout":
		if err := clearToken(tokenPath); err != nil {
			log.Fatalf("logout failed: %v", err)
		}
		fmt.Println("logged out")
	default:
		log.Fatal("usage: gighub auth <login|register|logout>")
	}
}

func handleEvents(ctx context.Context, client *http.Client, baseURL, sub string, args []string) {
	switch sub {
	case "list":
		fs := flag.NewFlagSet("events list", flag.ExitOnError)
		artistID := fs.String("artist-id", "", "filter by artist id")
		city := fs.String("city", "", "filter by city")
		country := fs.String("country", "", "filter by country code")
		limit := fs.Int("limit", 20, "page size")
		offset := fs.Int("offset", 0, "offset")
		_ = fs.Parse(args)

		u, err := url.Parse(baseURL + "/events")
		if err != nil {
			log.Fatalf("invalid base url: %v", err)
		}
		qv := u.Query()
		if *artistID != "" {
			qv.Set("artist_id", *artistID)
		}
		if *city != "" {
			qv.Set("city", *city)
		}
		if *country != "" {
			qv.Set("country", *country)
		}
		qv.Set("limit", fmt.Sprintf("%d", *limit))
		qv.Set("offset", fmt.Sprintf("%d", *offset))
		u.RawQuery = qv.Encode()

		var resp eventListResponse
		if err := doJSON(ctx, client, http.MethodGet, u.String(), "", nil, &resp); err != nil {
			log.Fatalf("list failed: %v", err)
		}
		printJSON(resp)
	case "show":
		fs := flag.NewFlagSet("events show", flag.ExitOnError)
		id := fs.String("id", "", "event id")
		_ = fs.Parse(args)
		if *id == "" {
			log.Fatal("event id is required")
		}

		var resp models.EventWithVenue
		if err := doJSON(ctx, client, http.MethodGet, baseURL+"/events/"+url.PathEscape(*id), "", nil, &resp); err != nil {
			log.Fatalf("show failed: %v", err)
		}
		printJSON(resp)
	case "search":
		fs := flag.NewFlagSet("events search", flag.ExitOnError)
		query := fs.String("q", "", "search query")
		_ = fs.Parse(args)
		if *query == "" {
			log.Fatal("search query is required")
		}

		u, err := url.Parse(baseURL + "/search")
		if err != nil {
			log.Fatalf("invalid base url: %v", err)
		}
		qv := u.Query()
		qv.Set("q", *query)
		u.RawQuery = qv.Encode()

		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodGet, u.String(), "", nil, &resp); err != nil {
			log.Fatalf("search failed: %v", err)
		}
		printJSON(resp)
	default:
		log.Fatal("usage: gighub events <list|show|search>")
	}
}

func handleSync(ctx context.Context, client *http.Client, baseURL, tokenPath, sub string, args []string) {
	token := mustToken(tokenPath)
	switch sub {
	case "artist":
		fs := flag.NewFlagSet("sync artist", flag.ExitOnError)
		name := fs.String("name", "", "artist name")
		limit := fs.Int("limit", 0, "max events to store (0 = server default)")
		_ = fs.Parse(args)
		if *name == "" {
			log.Fatal("artist name is required")
		}

		payload := map[string]any{"name": *name, "limit_per_artist": *limit}
		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodPost, baseURL+"/users/sync/artist", token, payload, &resp); err != nil {
			log.Fatalf("sync failed: %v", err)
		}
		printJSON(resp)
	case "batch":
		fs := flag.NewFlagSet("sync batch", flag.ExitOnError)
		names := fs.String("names", "", "comma-separated artist names")
		_ = fs.Parse(args)
		if *names == "" {
			log.Fatal("names are required")
		}

		var list []string
		for _, n := range strings.Split(*names, ",") {
			if n = strings.TrimSpace(n); n != "" {
				list = append(list, n)
			}
		}

		payload := map[string]any{"names": list}
		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodPost, baseURL+"/users/sync", token, payload, &resp); err != nil {
			log.Fatalf("sync failed: %v", err)
		}
		printJSON(resp)
	default:
		log.Fatal("usage: gighub sync <artist|batch>")
	}
}

func handleFollows(ctx context.Context, client *http.Client, baseURL, tokenPath, sub string, args []string) {
	token := mustToken(tokenPath)
	switch sub {
	case "add":
		fs := flag.NewFlagSet("follows add", flag.ExitOnError)
		name := fs.String("name", "", "artist name")
		status := fs.String("status", "following", "status")
		_ = fs.Parse(args)
		if *name == "" {
			log.Fatal("artist name is required")
		}

		payload := map[string]any{"artist_name": *name, "status": *status}
		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodPost, baseURL+"/users/follows", token, payload, &resp); err != nil {
			log.Fatalf("add failed: %v", err)
		}
		printJSON(resp)
	case "remove":
		fs := flag.NewFlagSet("follows remove", flag.ExitOnError)
		name := fs.String("name", "", "artist name")
		_ = fs.Parse(args)
		if *name == "" {
			log.Fatal("artist name is required")
		}

		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodDelete, baseURL+"/users/follows/"+url.PathEscape(*name), token, nil, &resp); err != nil {
			log.Fatalf("remove failed: %v", err)
		}
		printJSON(resp)
	case "list":
		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodGet, baseURL+"/users/follows", token, nil, &resp); err != nil {
			log.Fatalf("list failed: %v", err)
		}
		printJSON(resp)
	case "sync":
		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodPost, baseURL+"/users/follows/sync", token, map[string]any{}, &resp); err != nil {
			log.Fatalf("sync failed: %v", err)
		}
		printJSON(resp)
	default:
		log.Fatal("usage: gighub follows <add|remove|list|sync>")
	}
}

func handleWallet(ctx context.Context, client *http.Client, baseURL, tokenPath, sub string, args []string) {
	token := mustToken(tokenPath)
	switch sub {
	case "add":
		fs := flag.NewFlagSet("wallet add", flag.ExitOnError)
		eventID := fs.String("event-id", "", "event id")
		status := fs.String("status", "upcoming", "status")
		price := fs.Float64("price", 0, "price paid")
		notes := fs.String("notes", "", "notes")
		_ = fs.Parse(args)
		if *eventID == "" {
			log.Fatal("event-id is required")
		}

		payload := map[string]any{
			"event_id": *eventID,
			"status":   *status,
			"notes":    *notes,
		}
		if *price > 0 {
			payload["price"] = *price
		}
		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodPost, baseURL+"/users/wallet", token, payload, &resp); err != nil {
			log.Fatalf("add failed: %v", err)
		}
		printJSON(resp)
	case "remove":
		fs := flag.NewFlagSet("wallet remove", flag.ExitOnError)
		eventID := fs.String("event-id", "", "event id")
		_ = fs.Parse(args)
		if *eventID == "" {
			log.Fatal("event-id is required")
		}

		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodDelete, baseURL+"/users/wallet/"+url.PathEscape(*eventID), token, nil, &resp); err != nil {
			log.Fatalf("remove failed: %v", err)
		}
		printJSON(resp)
	case "list":
		fs := flag.NewFlagSet("wallet list", flag.ExitOnError)
		status := fs.String("status", "", "status filter")
		_ = fs.Parse(args)

		u, err := url.Parse(baseURL + "/users/wallet")
		if err != nil {
			log.Fatalf("invalid base url: %v", err)
		}
		if *status != "" {
			qv := u.Query()
			qv.Set("status", *status)
			u.RawQuery = qv.Encode()
		}

		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodGet, u.String(), token, nil, &resp); err != nil {
			log.Fatalf("list failed: %v", err)
		}
		printJSON(resp)
	default:
		log.Fatal("usage: gighub wallet <add|remove|list>")
	}
}

func handleFeed(baseURL, sub string, args []string) {
	switch sub {
	case "listen":
		fs := flag.NewFlagSet("feed listen", flag.ExitOnError)
		wsURL := fs.String("ws", "", "WebSocket URL (defaults to /ws on API host)")
		_ = fs.Parse(args)

		endpoint := *wsURL
		if endpoint == "" {
			var err error
			endpoint, err = websocketURL(baseURL, "/ws")
			if err != nil {
				log.Fatalf("ws url: %v", err)
			}
		}
		if err := runWebSocket(endpoint); err != nil {
			log.Fatalf("listen failed: %v", err)
		}
	default:
		log.Fatal("usage: gighub feed listen")
	}
}

func handleNotify(sub string, args []string) {
	switch sub {
	case "subscribe":
		fs := flag.NewFlagSet("notify subscribe", flag.ExitOnError)
		addr := fs.String("addr", "127.0.0.1:7071", "UDP notify server address")
		userID := fs.String("user-id", "", "user id to register as")
		artists := fs.String("artists", "", "comma-separated artist filter (empty = all)")
		_ = fs.Parse(args)
		if *userID == "" {
			log.Fatal("user-id is required")
		}
		if err := runNotifyUDP(*addr, *userID, *artists); err != nil {
			log.Fatalf("subscribe failed: %v", err)
		}
	default:
		log.Fatal("usage: gighub notify subscribe")
	}
}

func handleExport(ctx context.Context, client *http.Client, baseURL, sub string, args []string) {
	switch sub {
	case "json":
		fs := flag.NewFlagSet("export json", flag.ExitOnError)
		out := fs.String("out", "data/events.json", "output JSON path")
		limit := fs.Int("limit", 200, "max events to export")
		_ = fs.Parse(args)

		items, err := fetchEvents(ctx, client, baseURL, *limit)
		if err != nil {
			log.Fatalf("export json failed: %v", err)
		}
		if err := writeJSON(*out, items); err != nil {
			log.Fatalf("write json failed: %v", err)
		}
		log.Printf("exported %d events to %s", len(items), *out)
	default:
		log.Fatal("usage: gighub export json")
	}
}

func runWebSocket(wsURL string) error {
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	log.Printf("[feed] connected to %s", wsURL)
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		fmt.Println(string(msg))
	}
}

func runNotifyUDP(addr, userID, artists string) error {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	reg := map[string]any{"type": "register", "user_id": userID}
	var filter []string
	for _, a := range strings.Split(artists, ",") {
		if a = strings.TrimSpace(a); a != "" {
			filter = append(filter, a)
		}
	}
	if len(filter) > 0 {
		reg["artists"] = filter
	}

	payload, err := json.Marshal(reg)
	if err != nil {
		return err
	}
	if _, err := conn.Write(payload); err != nil {
		return err
	}

	log.Printf("[notify] registered %s at %s, waiting for pushes", userID, addr)
	buf := make([]byte, 2048)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			return err
		}
		fmt.Println(string(buf[:n]))
	}
}

func fetchEvents(ctx context.Context, client *http.Client, baseURL string, limit int) ([]models.EventWithVenue, error) {
	if limit <= 0 {
		return nil, errors.New("limit must be > 0")
	}

	var out []models.EventWithVenue
	offset := 0
	for len(out) < limit {
		pageSize := 50
		if remaining := limit - len(out); remaining < pageSize {
			pageSize = remaining
		}
		u, err := url.Parse(baseURL + "/events")
		if err != nil {
			return nil, err
		}
		qv := u.Query()
		qv.Set("limit", fmt.Sprintf("%d", pageSize))
		qv.Set("offset", fmt.Sprintf("%d", offset))
		u.RawQuery = qv.Encode()

		var resp eventListResponse
		if err := doJSON(ctx, client, http.MethodGet, u.String(), "", nil, &resp); err != nil {
			return nil, err
		}
		if len(resp.Items) == 0 {
			break
		}
		out = append(out, resp.Items...)
		offset += len(resp.Items)
		if offset >= resp.Total {
			break
		}
	}

	return out, nil
}

func writeJSON(path string, items []models.EventWithVenue) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func doJSON(ctx context.Context, client *http.Client, method, endpoint, token string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = strings.NewReader(string(b))
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s failed: %s", method, endpoint, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return err
	}
	return nil
}

func printJSON(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("json: %v", err)
	}
	fmt.Println(string(b))
}

func defaultTokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./.gighub-token.json"
	}
	return filepath.Join(home, ".gighub", "token.json")
}

func saveToken(path, token string) error {
	if token == "" {
		return errors.New("empty token")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(tokenData{Token: token}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func readToken(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	var td tokenData
	if err := json.Unmarshal(data, &td); err != nil {
		return "", err
	}
	return strings.TrimSpace(td.Token), nil
}

func mustToken(path string) string {
	token, err := readToken(path)
	if err != nil {
		log.Fatalf("token not found, please login: %v", err)
	}
	if token == "" {
		log.Fatal("token empty, please login")
	}
	return token
}

func clearToken(path string) error {
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}

func websocketURL(baseURL, path string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}
	return (&url.URL{
		Scheme: scheme,
		Host:   u.Host,
		Path:   path,
	}).String(), nil
}

func printUsage() {
	fmt.Println("gighub <command> [subcommand] [flags]")
	fmt.Println("commands:")
	fmt.Println("  auth login|register|logout")
	fmt.Println("  events list|show|search")
	fmt.Println("  sync artist|batch")
	fmt.Println("  follows add|remove|list|sync")
	fmt.Println("  wallet add|remove|list")
	fmt.Println("  feed listen")
	fmt.Println("  notify subscribe")
	fmt.Println("  export json")
}
