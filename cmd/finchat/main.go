// Command finchat is the terminal chat front end: a readline loop over
// the retrieval-augmented pipeline with upload, feedback and transcript
// commands.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/kataras/golog"

	"github.com/smallnest/finchat/chatbot"
	"github.com/smallnest/finchat/config"
	"github.com/smallnest/finchat/dispatch"
	"github.com/smallnest/finchat/feedback"
	"github.com/smallnest/finchat/ingest"
	"github.com/smallnest/finchat/log"
	"github.com/smallnest/finchat/rag"
	"github.com/smallnest/finchat/store"
)

var (
	promptStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	referenceStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	noticeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

func main() {
	configPath := flag.String("config", "app_config.yml", "path to the application config")
	model := flag.String("model", "", "model to dispatch to (defaults to the configured model)")
	dataSource := flag.String("data-source", chatbot.DataSourceExisting,
		fmt.Sprintf("data source: %q or %q", chatbot.DataSourceExisting, chatbot.DataSourceUpload))
	temperature := flag.Float64("temperature", -1, "sampling temperature (defaults to the configured value)")
	showRefs := flag.Bool("refs", true, "print retrieved references after each answer")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	logger := log.NewGologLogger(golog.New())
	if *verbose {
		logger.SetLevel(log.LogLevelDebug)
	}
	log.SetDefaultLogger(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("configuration error: %v", err)
		os.Exit(1)
	}
	if *model == "" {
		*model = cfg.LLM.Model
	}
	if *temperature < 0 {
		*temperature = cfg.LLM.Temperature
	}

	dispatcher, err := dispatch.New(dispatch.Options{
		OpenAIAPIKey: cfg.OpenAIAPIKey,
		GroqAPIKey:   cfg.GroqAPIKey,
		SystemRole:   cfg.LLM.SystemRole,
	})
	if err != nil {
		log.Error("failed to create dispatcher: %v", err)
		os.Exit(1)
	}

	bot := chatbot.New(cfg, dispatcher)
	defer bot.Close()

	sink := feedback.NewSink(cfg.Directories.FeedbackDirectory)
	transcripts := feedback.NewHistoryStore(cfg.Directories.ChatHistoryDirectory)

	fmt.Println(noticeStyle.Render(fmt.Sprintf(
		"finchat — model %s, data source %q. Type /help for commands.", *model, *dataSource)))

	var history []rag.Turn
	ctx := context.Background()
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print(promptStyle.Render("you> "))
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if quit := runCommand(ctx, line, cfg, sink, transcripts, &history, dataSource); quit {
				break
			}
			continue
		}

		resp := bot.Respond(ctx, history, line, *dataSource, *temperature, *model)
		history = resp.History

		last := history[len(history)-1]
		fmt.Println(assistantStyle.Render(last.Assistant))
		if *showRefs && resp.References != "" && resp.References != rag.NoDocumentsFound {
			fmt.Println(referenceStyle.Render(resp.References))
		}
	}
}

// runCommand handles slash commands; returns true when the loop should
// exit.
func runCommand(ctx context.Context, line string, cfg *config.AppConfig, sink *feedback.Sink,
	transcripts *feedback.HistoryStore, history *[]rag.Turn, dataSource *string) bool {

	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		return true

	case "/help":
		fmt.Println(noticeStyle.Render(strings.Join([]string{
			"/upload <file> [file...]  index files into the upload store",
			"/up | /down               record feedback on the last answer",
			"/save                     save the transcript",
			"/load                     restore the latest saved transcript",
			"/quit                     exit",
		}, "\n")))

	case "/upload":
		if len(fields) < 2 {
			fmt.Println(noticeStyle.Render("usage: /upload <file> [file...]"))
			break
		}
		embedder, err := store.NewOpenAIEmbedder(cfg.OpenAIAPIKey, cfg.Embedding.Engine, cfg.Embedding.BaseURL)
		if err != nil {
			log.Error("failed to create embedder: %v", err)
			break
		}
		pipeline := ingest.New(embedder, cfg.Splitter.ChunkSize, cfg.Splitter.ChunkOverlap)
		count, err := pipeline.IngestFiles(ctx, fields[1:], cfg.Directories.CustomPersistDirectory)
		if err != nil {
			log.Error("upload failed: %v", err)
			break
		}
		*dataSource = chatbot.DataSourceUpload
		*history = append(*history, rag.Turn{
			User:      fmt.Sprintf("Uploaded %d file(s), %d chunks indexed.", len(fields)-1, count),
			Assistant: ingest.UploadReadyMessage,
		})
		fmt.Println(assistantStyle.Render(ingest.UploadReadyMessage))

	case "/up", "/down":
		if len(*history) == 0 {
			fmt.Println(noticeStyle.Render("nothing to rate yet"))
			break
		}
		kind := feedback.Upvote
		if fields[0] == "/down" {
			kind = feedback.Downvote
		}
		last := (*history)[len(*history)-1]
		if _, err := sink.Record(kind, last.Assistant); err != nil {
			log.Error("failed to record feedback: %v", err)
			break
		}
		fmt.Println(noticeStyle.Render("feedback recorded"))

	case "/save":
		path, err := transcripts.Save(*history)
		if err != nil {
			log.Error("failed to save transcript: %v", err)
			break
		}
		fmt.Println(noticeStyle.Render("saved to " + path))

	case "/load":
		loaded, err := transcripts.Latest()
		if err != nil {
			log.Error("failed to load transcript: %v", err)
			break
		}
		if loaded == nil {
			fmt.Println(noticeStyle.Render("no saved transcripts"))
			break
		}
		*history = loaded
		fmt.Println(noticeStyle.Render(fmt.Sprintf("restored %d turns", len(loaded))))

	default:
		fmt.Println(noticeStyle.Render("unknown command; try /help"))
	}
	return false
}
