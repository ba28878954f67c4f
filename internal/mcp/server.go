// Package mcp exposes qrforge operations as Model Context Protocol tools
// over stdio.
package mcp

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/qrforge/qrforge/internal/application"
	"github.com/qrforge/qrforge/internal/logger"
	"github.com/qrforge/qrforge/internal/qr"
	"github.com/qrforge/qrforge/internal/session"
	"github.com/qrforge/qrforge/internal/store"
	"github.com/qrforge/qrforge/internal/usecase"
)

// Server wraps the MCP server with qrforge-specific functionality. It keeps
// one live editing session for the qr_edit/qr_generate/qr_undo/qr_redo
// tools.
type Server struct {
	server *mcp.Server
	app    *application.App

	mu      sync.Mutex
	session *session.Session

	unsubscribe func()
}

// NewServer creates a new MCP server instance on top of an opened app.
func NewServer(app *application.App, version string) *Server {
	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    "qrforge",
		Version: version,
	}, nil)

	s := &Server{
		server:  mcpServer,
		app:     app,
		session: app.NewSession(),
	}

	s.unsubscribe = app.Store.Subscribe(func(c store.Change) {
		app.Log.Debug("qr code collection changed",
			logger.String("kind", string(c.Kind)),
			logger.String("id", c.ID))
	})

	s.registerTools()
	return s
}

// Run starts the MCP server with stdio transport.
func (s *Server) Run(ctx context.Context) error {
	defer s.unsubscribe()
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "qr_format",
		Description: "Format content into the literal payload a QR code of the given type encodes",
	}, s.handleFormat)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "qr_save",
		Description: "Save a QR code record to local history",
	}, s.handleSave)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "qr_list",
		Description: "List saved QR codes with optional search, type filter and sort order",
	}, s.handleList)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "qr_delete",
		Description: "Delete a saved QR code by id or unique id prefix",
	}, s.handleDelete)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "qr_info",
		Description: "Show a saved QR code and its formatted payload",
	}, s.handleInfo)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "qr_edit",
		Description: "Edit the type, content, name or style of the live editing session",
	}, s.handleEdit)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "qr_generate",
		Description: "Generate the live session's QR code and record it in the undo history",
	}, s.handleGenerate)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "qr_undo",
		Description: "Restore the previously generated state of the live session",
	}, s.handleUndo)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "qr_redo",
		Description: "Reapply the most recently undone state of the live session",
	}, s.handleRedo)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "qr_session_save",
		Description: "Save the live session's QR code to local history",
	}, s.handleSessionSave)
}

// Input/Output types for each tool

// ContentInput carries either raw content or one typed block.
type ContentInput struct {
	Type    string           `json:"type" jsonschema:"QR code type: url, text, email, phone, sms, wifi or vcard"`
	Content string           `json:"content,omitempty" jsonschema:"Raw content for url, text and phone, or serialized JSON for structured types"`
	Wifi    *qr.WifiContent  `json:"wifi,omitempty" jsonschema:"WiFi network details"`
	VCard   *qr.VCardContent `json:"vcard,omitempty" jsonschema:"Contact card details"`
	Email   *qr.EmailContent `json:"email,omitempty" jsonschema:"Email address, subject and body"`
	SMS     *qr.SMSContent   `json:"sms,omitempty" jsonschema:"SMS number and message"`
}

type FormatInput = ContentInput

type FormatOutput struct {
	Payload  string `json:"payload"`
	Degraded string `json:"degraded,omitempty"`
}

type SaveInput struct {
	Type            string           `json:"type" jsonschema:"QR code type: url, text, email, phone, sms, wifi or vcard"`
	Content         string           `json:"content,omitempty" jsonschema:"Raw content for url, text and phone, or serialized JSON for structured types"`
	Wifi            *qr.WifiContent  `json:"wifi,omitempty" jsonschema:"WiFi network details"`
	VCard           *qr.VCardContent `json:"vcard,omitempty" jsonschema:"Contact card details"`
	Email           *qr.EmailContent `json:"email,omitempty" jsonschema:"Email address, subject and body"`
	SMS             *qr.SMSContent   `json:"sms,omitempty" jsonschema:"SMS number and message"`
	Name            string           `json:"name,omitempty" jsonschema:"Optional label; generated from type and time when empty"`
	Color           string           `json:"color,omitempty" jsonschema:"Foreground hex colour such as #000000"`
	BackgroundColor string           `json:"backgroundColor,omitempty" jsonschema:"Background hex colour such as #ffffff"`
	Size            int              `json:"size,omitempty" jsonschema:"Image size in pixels between 100 and 400"`
	ErrorCorrection string           `json:"errorCorrection,omitempty" jsonschema:"Error correction level: L, M, Q or H"`
}

func (in SaveInput) content() ContentInput {
	return ContentInput{Type: in.Type, Content: in.Content, Wifi: in.Wifi, VCard: in.VCard, Email: in.Email, SMS: in.SMS}
}

func (in SaveInput) style() qr.Style {
	return qr.Style{
		Color:           in.Color,
		BackgroundColor: in.BackgroundColor,
		Size:            in.Size,
		ErrorCorrection: qr.ErrorCorrection(in.ErrorCorrection),
	}
}

type RecordOutput struct {
	ID              string `json:"id"`
	Type            string `json:"type"`
	Name            string `json:"name"`
	Content         string `json:"content"`
	Payload         string `json:"payload"`
	Color           string `json:"color"`
	BackgroundColor string `json:"backgroundColor"`
	Size            int    `json:"size"`
	ErrorCorrection string `json:"errorCorrection"`
	CreatedAt       string `json:"createdAt"`
}

type ListInput struct {
	Search string `json:"search,omitempty" jsonschema:"Case-insensitive text matched against name or content"`
	Type   string `json:"type,omitempty" jsonschema:"Only list codes of this type"`
	SortBy string `json:"sortBy,omitempty" jsonschema:"Sort order: date (newest first), name or type"`
}

type ListOutput struct {
	Entries []RecordOutput `json:"entries"`
}

type RefInput struct {
	ID string `json:"id" jsonschema:"Record id or unique id prefix"`
}

type DeleteOutput struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// EditInput changes only the fields that are set. A new type resets the
// content unless content is given too.
type EditInput struct {
	Type            string           `json:"type,omitempty" jsonschema:"New QR code type"`
	Content         string           `json:"content,omitempty" jsonschema:"New raw or serialized content"`
	Wifi            *qr.WifiContent  `json:"wifi,omitempty" jsonschema:"WiFi network details"`
	VCard           *qr.VCardContent `json:"vcard,omitempty" jsonschema:"Contact card details"`
	Email           *qr.EmailContent `json:"email,omitempty" jsonschema:"Email address, subject and body"`
	SMS             *qr.SMSContent   `json:"sms,omitempty" jsonschema:"SMS number and message"`
	Name            *string          `json:"name,omitempty" jsonschema:"New label for the session record"`
	Color           string           `json:"color,omitempty" jsonschema:"Foreground hex colour"`
	BackgroundColor string           `json:"backgroundColor,omitempty" jsonschema:"Background hex colour"`
	Size            int              `json:"size,omitempty" jsonschema:"Image size in pixels between 100 and 400"`
	ErrorCorrection string           `json:"errorCorrection,omitempty" jsonschema:"Error correction level: L, M, Q or H"`
}

func (in EditInput) content() ContentInput {
	return ContentInput{Type: in.Type, Content: in.Content, Wifi: in.Wifi, VCard: in.VCard, Email: in.Email, SMS: in.SMS}
}

func (in EditInput) style() qr.Style {
	return qr.Style{
		Color:           in.Color,
		BackgroundColor: in.BackgroundColor,
		Size:            in.Size,
		ErrorCorrection: qr.ErrorCorrection(in.ErrorCorrection),
	}
}

type EmptyInput struct{}

type SessionOutput struct {
	State   string       `json:"state"`
	Record  RecordOutput `json:"record"`
	CanUndo bool         `json:"canUndo"`
	CanRedo bool         `json:"canRedo"`
	Notice  string       `json:"notice,omitempty"`
}

// Tool handlers

func (s *Server) handleFormat(_ context.Context, _ *mcp.CallToolRequest, input FormatInput) (*mcp.CallToolResult, FormatOutput, error) {
	t, content, err := input.resolve()
	if err != nil {
		return nil, FormatOutput{}, err
	}
	res := s.app.Codes.Format(t, content)
	out := FormatOutput{Payload: res.Payload}
	if res.Err != nil {
		out.Degraded = res.Err.Error()
	}
	return nil, out, nil
}

func (s *Server) handleSave(ctx context.Context, _ *mcp.CallToolRequest, input SaveInput) (*mcp.CallToolResult, RecordOutput, error) {
	t, content, err := input.content().resolve()
	if err != nil {
		return nil, RecordOutput{}, err
	}

	record, err := s.app.Codes.Create(ctx, usecase.CreateInput{
		Type:    t,
		Content: content,
		Name:    input.Name,
		Style:   input.style(),
	})
	if err != nil {
		return nil, RecordOutput{}, fmt.Errorf("failed to save qr code: %w", err)
	}
	return nil, s.recordOutput(record), nil
}

func (s *Server) handleList(ctx context.Context, _ *mcp.CallToolRequest, input ListInput) (*mcp.CallToolResult, ListOutput, error) {
	q := store.Query{Search: input.Search}
	if input.Type != "" {
		t, err := qr.ParseType(input.Type)
		if err != nil {
			return nil, ListOutput{}, err
		}
		q.Type = t
	}
	sortBy, ok := store.ParseSortBy(input.SortBy)
	if !ok {
		return nil, ListOutput{}, fmt.Errorf("invalid sortBy %q (valid values: date, name, type)", input.SortBy)
	}
	q.SortBy = sortBy

	entries, err := s.app.Codes.List(ctx, q)
	if err != nil {
		return nil, ListOutput{}, fmt.Errorf("failed to list qr codes: %w", err)
	}

	out := ListOutput{Entries: make([]RecordOutput, 0, len(entries))}
	for _, e := range entries {
		out.Entries = append(out.Entries, toRecordOutput(e.Record, e.Payload))
	}
	return nil, out, nil
}

func (s *Server) handleDelete(ctx context.Context, _ *mcp.CallToolRequest, input RefInput) (*mcp.CallToolResult, DeleteOutput, error) {
	record, err := s.app.Codes.Delete(ctx, input.ID)
	if err != nil {
		return nil, DeleteOutput{}, fmt.Errorf("failed to delete qr code: %w", err)
	}
	return nil, DeleteOutput{
		Message: fmt.Sprintf("Deleted %q", record.DisplayName()),
		ID:      record.ID,
	}, nil
}

func (s *Server) handleInfo(ctx context.Context, _ *mcp.CallToolRequest, input RefInput) (*mcp.CallToolResult, RecordOutput, error) {
	shown, err := s.app.Codes.Show(ctx, input.ID)
	if err != nil {
		return nil, RecordOutput{}, fmt.Errorf("failed to get qr code: %w", err)
	}
	return nil, toRecordOutput(shown.Record, shown.Payload), nil
}

func (s *Server) handleEdit(_ context.Context, _ *mcp.CallToolRequest, input EditInput) (*mcp.CallToolResult, SessionOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ci := input.content()
	if ci.Type != "" || ci.Content != "" || ci.Wifi != nil || ci.VCard != nil || ci.Email != nil || ci.SMS != nil {
		if ci.Type == "" {
			ci.Type = string(s.session.Current().Type)
		}
		t, content, err := ci.resolve()
		if err != nil {
			return nil, SessionOutput{}, err
		}
		if t != s.session.Current().Type {
			if err := s.session.SetType(t); err != nil {
				return nil, SessionOutput{}, err
			}
		}
		if content != "" {
			s.session.SetContent(content)
		}
	}

	if input.Name != nil {
		s.session.SetName(*input.Name)
	}

	style := input.style()
	if style != (qr.Style{}) {
		if err := s.session.SetStyle(style); err != nil {
			return nil, SessionOutput{}, err
		}
	}

	return nil, s.sessionOutput(), nil
}

func (s *Server) handleGenerate(_ context.Context, _ *mcp.CallToolRequest, _ EmptyInput) (*mcp.CallToolResult, SessionOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.session.Generate(); err != nil {
		return nil, SessionOutput{}, err
	}
	return nil, s.sessionOutput(), nil
}

func (s *Server) handleUndo(_ context.Context, _ *mcp.CallToolRequest, _ EmptyInput) (*mcp.CallToolResult, SessionOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.session.Undo(); !ok {
		return nil, SessionOutput{}, fmt.Errorf("nothing to undo")
	}
	return nil, s.sessionOutput(), nil
}

func (s *Server) handleRedo(_ context.Context, _ *mcp.CallToolRequest, _ EmptyInput) (*mcp.CallToolResult, SessionOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.session.Redo(); !ok {
		return nil, SessionOutput{}, fmt.Errorf("nothing to redo")
	}
	return nil, s.sessionOutput(), nil
}

func (s *Server) handleSessionSave(ctx context.Context, _ *mcp.CallToolRequest, _ EmptyInput) (*mcp.CallToolResult, RecordOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.session.Save(ctx)
	if err != nil {
		return nil, RecordOutput{}, fmt.Errorf("failed to save session: %w", err)
	}
	return nil, s.recordOutput(record), nil
}

func (s *Server) sessionOutput() SessionOutput {
	return SessionOutput{
		State:   string(s.session.State()),
		Record:  s.recordOutput(s.session.Current()),
		CanUndo: s.session.CanUndo(),
		CanRedo: s.session.CanRedo(),
		Notice:  s.session.Notice(),
	}
}

func (s *Server) recordOutput(r qr.Record) RecordOutput {
	return toRecordOutput(r, s.app.Codes.Format(r.Type, r.Content).Payload)
}

func toRecordOutput(r qr.Record, payload string) RecordOutput {
	return RecordOutput{
		ID:              r.ID,
		Type:            string(r.Type),
		Name:            r.DisplayName(),
		Content:         r.Content,
		Payload:         payload,
		Color:           r.Color,
		BackgroundColor: r.BackgroundColor,
		Size:            r.Size,
		ErrorCorrection: string(r.ErrorCorrection),
		CreatedAt:       r.CreatedAt().Format(time.RFC3339),
	}
}

// resolve turns the input into a type and serialised content.
func (in ContentInput) resolve() (qr.Type, string, error) {
	t, err := qr.ParseType(in.Type)
	if err != nil {
		return "", "", err
	}

	var block qr.Content
	switch {
	case in.Wifi != nil:
		block = *in.Wifi
	case in.VCard != nil:
		block = *in.VCard
	case in.Email != nil:
		block = *in.Email
	case in.SMS != nil:
		block = *in.SMS
	}
	if block == nil {
		return t, in.Content, nil
	}
	if block.Type() != t {
		return "", "", fmt.Errorf("%w: %s details given for type %s", qr.ErrInvalidContent, block.Type(), t)
	}

	content, err := qr.EncodeContent(block)
	if err != nil {
		return "", "", err
	}
	return t, content, nil
}
