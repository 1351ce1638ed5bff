// Command-line chat client for a running Zemon server
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"zemon/zemon/services/assistant"
	"zemon/zemon/services/conversation"
	"zemon/zemon/types"
	"zemon/zemon/utils/color"
	httputils "zemon/zemon/utils/http"
	"zemon/zemon/utils/jsonutils"
	utypes "zemon/zemon/utils/types"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}
	var err error
	switch args[0] {
	case "login":
		err = login(args[1:])
	case "ask":
		err = ask(args[1:])
	case "connect":
		err = connect(args[1:])
	default:
		usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, color.ColorError("error: "+err.Error()))
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("Zemon CLI usage:")
	fmt.Println("  zemon login -email you@example.com -password secret   # prints a token")
	fmt.Println("  ZEMON_TOKEN=<token> zemon ask [-server url] [-chat id] <message>")
	fmt.Println("  ZEMON_TOKEN=<token> zemon connect [-server url] [-chat id]")
}

func tokenFromEnv() (string, error) {
	token := os.Getenv("ZEMON_TOKEN")
	if token == "" {
		return "", errors.New("ZEMON_TOKEN is not set; run `zemon login` first")
	}
	return token, nil
}

func login(args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	server := fs.String("server", "http://localhost:8000", "server base URL")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	fs.Parse(args)

	var resp struct {
		Token string `json:"token"`
	}
	err := httputils.PostJSON(context.Background(), nil, strings.TrimRight(*server, "/")+"/auth/login", nil,
		utypes.LoginRequest{Email: *email, Password: *password}, &resp)
	if err != nil {
		return err
	}
	fmt.Println(resp.Token)
	return nil
}

// ask runs one turn over the plain-text stream and prints the answer.
func ask(args []string) error {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	server := fs.String("server", "http://localhost:8000", "server base URL")
	chatID := fs.String("chat", "", "continue an existing chat")
	system := fs.String("system", "", "system prompt")
	fs.Parse(args)

	message := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if message == "" {
		return errors.New("nothing to ask")
	}
	token, err := tokenFromEnv()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	body, err := httputils.PostStream(ctx, nil, strings.TrimRight(*server, "/")+"/chat",
		map[string]string{"Authorization": "Bearer " + token},
		utypes.ChatRequest{Message: message, SystemPrompt: *system, ChatID: *chatID})
	if err != nil {
		return err
	}
	defer body.Close()

	err = copyStream(os.Stdout, body)
	fmt.Println()
	return err
}

// copyStream writes the answer text of a /chat stream to w. An error chunk
// ends the copy and comes back as the returned error.
func copyStream(w io.Writer, r io.Reader) error {
	buf := make([]byte, 4096)
	var pending string
	failed := false
	for {
		n, err := r.Read(buf)
		pending += string(buf[:n])
		if !failed && jsonutils.IsErrorChunk(pending) {
			failed = true
		}
		if !failed {
			cut := len(pending) - heldBack(pending)
			if _, werr := io.WriteString(w, pending[:cut]); werr != nil {
				return werr
			}
			pending = pending[cut:]
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
	}

	before, msg, ok := jsonutils.SplitErrorChunk(pending)
	if _, err := io.WriteString(w, before); err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if msg == "" {
		msg = "stream failed"
	}
	return errors.New(msg)
}

// heldBack is the length of a trailing fragment that may still grow into an
// error marker.
func heldBack(s string) int {
	i := strings.LastIndexByte(s, '{')
	if i < 0 || len(s)-i >= len(jsonutils.ErrorMarker) {
		return 0
	}
	if strings.HasPrefix(jsonutils.ErrorMarker, s[i:]) {
		return len(s) - i
	}
	return 0
}

func connect(args []string) error {
	fs := flag.NewFlagSet("connect", flag.ExitOnError)
	server := fs.String("server", "http://localhost:8000", "server base URL")
	chatID := fs.String("chat", "", "continue an existing chat")
	noColor := fs.Bool("no-color", false, "disable colors")
	fs.Parse(args)
	if *noColor {
		color.Disable()
	}

	token, err := tokenFromEnv()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	wsURL := "ws" + strings.TrimPrefix(strings.TrimRight(*server, "/"), "http") + "/chat/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", wsURL, err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")
	conn.SetReadLimit(1 << 20)

	state := conversation.Reduce(conversation.State{}, conversation.NewChat{ID: *chatID})
	fmt.Printf("\n%s\n", color.ColorInfo("Connected to "+*server+". Type 'exit' to quit."))

	scanner := bufio.NewScanner(os.Stdin)
	first := true
	for {
		fmt.Print(color.ColorPrompt("zemon> "))
		if !scanner.Scan() {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "exit" || line == "quit" {
			fmt.Println("👋 Goodbye!")
			return nil
		}
		if line == "" {
			continue
		}

		req := utypes.WSChatRequest{ChatRequest: utypes.ChatRequest{Message: line, ChatID: state.ChatID}}
		if first {
			req.Token = token
		}
		if err := wsjson.Write(ctx, conn, req); err != nil {
			return err
		}
		first = false

		state, err = readTurn(ctx, conn, state, line)
		if err != nil {
			return err
		}
		fmt.Println()
	}
}

// readTurn prints server events until the turn completes and returns the
// updated conversation.
func readTurn(ctx context.Context, conn *websocket.Conn, state conversation.State, message string) (conversation.State, error) {
	started := false
	for {
		var ev utypes.WSEvent
		if err := wsjson.Read(ctx, conn, &ev); err != nil {
			return state, err
		}
		switch assistant.EventType(ev.Type) {
		case assistant.EventChatStarted:
			if id, _ := ev.Payload["chat_id"].(string); id != "" {
				state.ChatID = id
			}
			state = conversation.Reduce(state, conversation.AppendUser{Content: message})
			started = true
		case assistant.EventSearchStarted:
			fmt.Println(color.ColorInfo("🔍 Searching for up-to-date information..."))
		case assistant.EventSearchFailed:
			reason, _ := ev.Payload["reason"].(string)
			fmt.Println(color.ColorWarning(reason))
		case assistant.EventSearchResults:
			printSources(ev.Payload["sources"])
		case assistant.EventResponseChunk:
			chunk, _ := ev.Payload["content"].(string)
			state = conversation.Reduce(state, conversation.AppendChunk{Content: chunk})
			fmt.Print(color.ColorAgentResponse(chunk))
		case assistant.EventError:
			msg, _ := ev.Payload["message"].(string)
			fmt.Println()
			fmt.Println(color.ColorError(msg))
			if !started || msg == assistant.SaveFailedMessage {
				return state, nil
			}
			state = conversation.Reduce(state, conversation.Error{Message: msg, Content: msg})
		case assistant.EventResponseComplete:
			state = conversation.Reduce(state, conversation.FinalizeMessage{Kind: types.MessageKind(kindOf(ev.Payload))})
			return state, nil
		}
	}
}

func kindOf(payload map[string]any) string {
	msg, _ := payload["message"].(map[string]any)
	kind, _ := msg["kind"].(string)
	return kind
}

func printSources(raw any) {
	sources, _ := raw.([]any)
	for i, s := range sources {
		src, _ := s.(map[string]any)
		title, _ := src["title"].(string)
		link, _ := src["link"].(string)
		fmt.Printf("[%d] %s %s\n", i+1, title, color.ColorSource(link))
	}
}
