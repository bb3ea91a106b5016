package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"ragdash/internal/app"
	"ragdash/internal/bootstrap"
	"ragdash/internal/model"
)

const helpText = `Commands:
  /docs [search]      list documents
  /show <id> [text]   show a document's chunks, optionally only those containing text
  /upload <path>...   upload pdf or txt files
  /rm <id>            delete a document
  /chats              list chat sessions
  /new <name>         create a chat over the listed documents
  /use <id>           switch to a chat
  /drop <id>          delete a chat
  /history            show the current transcript
  /sources            show the sources of the last answer
  /clear              clear the local transcript
  /stats              show the dashboard overview
  /quit               exit
Anything else is asked as a question in the current chat.`

type repl struct {
	app      *bootstrap.App
	in       *bufio.Scanner
	out      io.Writer
	readFile func(string) ([]byte, error)

	prompt  func(a ...interface{}) string
	accent  func(a ...interface{}) string
	success func(a ...interface{}) string
	failure func(a ...interface{}) string
	muted   func(a ...interface{}) string
}

func newREPL(a *bootstrap.App, in io.Reader, out io.Writer) *repl {
	return &repl{
		app:      a,
		in:       bufio.NewScanner(in),
		out:      out,
		readFile: os.ReadFile,
		prompt:   color.New(color.FgGreen, color.Bold).SprintFunc(),
		accent:   color.New(color.FgCyan, color.Bold).SprintFunc(),
		success:  color.New(color.FgGreen).SprintFunc(),
		failure:  color.New(color.FgRed).SprintFunc(),
		muted:    color.New(color.Faint).SprintFunc(),
	}
}

func (r *repl) run(ctx context.Context) error {
	fmt.Fprintln(r.out, r.accent("ragctl"), r.muted("backend "+r.app.Config.API.BaseURL))
	fmt.Fprintln(r.out, "Type /help for commands.")
	r.exec(ctx, "/chats")

	for {
		label := "ask"
		if s := r.app.Conversation.Session(); s != nil {
			label = s.Name
		}
		fmt.Fprint(r.out, r.prompt(label+"> "))
		if !r.in.Scan() {
			fmt.Fprintln(r.out)
			return r.in.Err()
		}
		if ctx.Err() != nil {
			return nil
		}
		if quit := r.exec(ctx, r.in.Text()); quit {
			return nil
		}
	}
}

// exec runs one input line and reports whether the session should end.
func (r *repl) exec(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	defer r.flushNotifications()

	if !strings.HasPrefix(line, "/") {
		r.ask(ctx, line)
		return false
	}

	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	switch cmd {
	case "/quit", "/exit":
		return true
	case "/help":
		fmt.Fprintln(r.out, helpText)
	case "/docs":
		r.listDocs(ctx, rest)
	case "/show":
		if r.needArg(cmd, rest) {
			id, search, _ := strings.Cut(rest, " ")
			r.showDoc(ctx, id, search)
		}
	case "/upload":
		r.upload(ctx, strings.Fields(rest))
	case "/rm":
		if r.needArg(cmd, rest) {
			_ = r.app.Catalog.Delete(ctx, rest)
		}
	case "/chats":
		r.listChats(ctx)
	case "/new":
		if r.needArg(cmd, rest) {
			r.newChat(ctx, rest)
		}
	case "/use":
		if r.needArg(cmd, rest) {
			if _, err := r.app.Sessions.Select(ctx, rest); err != nil {
				r.printError(err)
				return false
			}
			r.printTranscript()
		}
	case "/drop":
		if r.needArg(cmd, rest) {
			_ = r.app.Sessions.Delete(ctx, rest)
		}
	case "/history":
		r.printTranscript()
	case "/sources":
		r.lastSources()
	case "/clear":
		if err := r.app.Conversation.Clear(); err != nil {
			r.printError(err)
		}
	case "/stats":
		r.stats(ctx)
	default:
		fmt.Fprintln(r.out, r.failure("unknown command "+cmd+", try /help"))
	}
	return false
}

func (r *repl) needArg(cmd, arg string) bool {
	if arg == "" {
		fmt.Fprintln(r.out, r.failure(cmd+" needs an argument"))
		return false
	}
	return true
}

func (r *repl) ask(ctx context.Context, question string) {
	fmt.Fprintln(r.out, r.muted("thinking..."))
	reply, err := r.app.Conversation.Submit(ctx, question)
	if err != nil {
		if app.IsValidation(err) || app.IsState(err) {
			r.printError(err)
		}
		return
	}
	fmt.Fprintln(r.out, r.accent("Assistant:"), reply.Content)
	for i, src := range reply.Sources {
		fmt.Fprintf(r.out, "  %d. %s %s\n     %s\n", i+1, src.DocumentName,
			r.muted(fmt.Sprintf("(%d%% match)", src.Percent())), app.Truncate(src.Excerpt, 160))
	}
	fmt.Fprintln(r.out)
}

func (r *repl) listDocs(ctx context.Context, search string) {
	page, err := r.app.Catalog.List(ctx, app.DocumentFilter{Search: search})
	if err != nil {
		return
	}
	if len(page.Documents) == 0 {
		fmt.Fprintln(r.out, r.muted("no documents"))
		return
	}
	tw := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTYPE\tCHUNKS\tSIZE\tUPLOADED")
	for _, d := range page.Documents {
		uploaded := "-"
		if !d.CreatedAt.IsZero() {
			uploaded = d.CreatedAt.Format("2006-01-02")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n", d.ID, d.Name, d.FileType, d.Chunks, model.FormatFileSize(d.SizeBytes), uploaded)
	}
	_ = tw.Flush()
}

func (r *repl) showDoc(ctx context.Context, id, search string) {
	detail, err := r.app.Catalog.Get(ctx, id)
	if err != nil {
		r.printError(err)
		return
	}
	fmt.Fprintf(r.out, "%s %s\n", r.accent(detail.Name), r.muted(fmt.Sprintf("[%s, %d chunks]", detail.FileType, detail.Chunks)))
	chunks := detail.SearchChunks(search)
	if len(chunks) == 0 {
		fmt.Fprintln(r.out, r.muted("no matching chunks"))
		return
	}
	for i, c := range chunks {
		fmt.Fprintf(r.out, "  %d. %s\n", i+1, app.Truncate(strings.Join(strings.Fields(c.Content), " "), 160))
	}
}

func (r *repl) lastSources() {
	last, ok := r.app.Conversation.LastAnswer()
	if !ok {
		fmt.Fprintln(r.out, r.muted("no answer yet"))
		return
	}
	if len(last.Sources) == 0 {
		fmt.Fprintln(r.out, r.muted("the last answer cited no sources"))
		return
	}
	for i, src := range last.Sources {
		fmt.Fprintf(r.out, "  %d. %s %s\n     %s\n", i+1, src.DocumentName,
			r.muted(fmt.Sprintf("(%d%% match)", src.Percent())), app.Truncate(src.Excerpt, 160))
	}
}

func (r *repl) upload(ctx context.Context, paths []string) {
	if len(paths) == 0 {
		fmt.Fprintln(r.out, r.failure("/upload needs at least one path"))
		return
	}
	files := make([]app.UploadInput, 0, len(paths))
	for _, p := range paths {
		content, err := r.readFile(p)
		if err != nil {
			fmt.Fprintln(r.out, r.failure(fmt.Sprintf("%s: %v", p, err)))
			continue
		}
		files = append(files, app.UploadInput{FileName: filepath.Base(p), Content: content})
	}
	for _, item := range r.app.Catalog.UploadBatch(ctx, files) {
		status := r.success(string(item.Status))
		if item.Status == app.UploadFailed {
			status = r.failure(string(item.Status))
		}
		fmt.Fprintf(r.out, "  %-7s %s %s\n", status, item.FileName, r.muted(item.Error))
	}
	r.app.Catalog.ClearFinishedUploads()
}

func (r *repl) listChats(ctx context.Context) {
	sessions, err := r.app.Sessions.List(ctx)
	if err != nil {
		return
	}
	if len(sessions) == 0 {
		fmt.Fprintln(r.out, r.muted("no chats yet, create one with /new <name>"))
		return
	}
	for _, s := range sessions {
		marker := " "
		if s.Active {
			marker = r.accent("*")
		}
		fmt.Fprintf(r.out, "%s %s  %s %s\n", marker, s.ID, s.Name, r.muted(fmt.Sprintf("[%s, %d docs]", s.Provider, len(s.Contexts))))
	}
}

func (r *repl) newChat(ctx context.Context, name string) {
	docs := r.app.Catalog.Documents()
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	if _, err := r.app.Sessions.Create(ctx, app.CreateSessionInput{Name: name, Contexts: ids}); err != nil && app.IsValidation(err) {
		r.printError(err)
	}
}

func (r *repl) stats(ctx context.Context) {
	o, err := r.app.Analytics.Overview(ctx)
	if err != nil {
		r.printError(err)
		return
	}
	fmt.Fprintf(r.out, "documents %d (today %d), chunks %d, queries %d\n",
		o.TotalDocuments, o.UploadedToday, o.TotalChunks, o.TotalQueries)
	for _, d := range o.QueriesByWeekday {
		fmt.Fprintf(r.out, "  %s %s %d\n", d.Day, strings.Repeat("#", d.Count), d.Count)
	}
}

func (r *repl) printTranscript() {
	msgs := r.app.Conversation.Transcript()
	if len(msgs) == 0 {
		fmt.Fprintln(r.out, r.muted("no messages yet"))
		return
	}
	_ = app.RenderTranscript(r.out, msgs)
}

func (r *repl) printError(err error) {
	fmt.Fprintln(r.out, r.failure(app.UserMessage(err)))
}

func (r *repl) flushNotifications() {
	for _, n := range r.app.Notifications.Drain() {
		switch n.Level {
		case model.LevelError:
			fmt.Fprintln(r.out, r.failure("! "+n.Message))
		case model.LevelSuccess:
			fmt.Fprintln(r.out, r.success("ok "+n.Message))
		default:
			fmt.Fprintln(r.out, r.muted(n.Message))
		}
	}
}
