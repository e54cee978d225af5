// Package lsp serves grammar-driven completion over the Language Server
// Protocol.
package lsp

import (
	"net/url"
	"path/filepath"
	"strings"

	"github.com/dhamidi/caret/language"
	"github.com/tliron/commonlog"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	_ "github.com/tliron/commonlog/simple"
)

const lsName = "caret"

type Server struct {
	languages []*language.Language
	documents *Documents
	handler   protocol.Handler
	server    *server.Server
	version   string
	log       commonlog.Logger
}

// NewServer creates a server completing documents in the given languages.
// A document is handled by the first language matching its file name.
func NewServer(version string, languages ...*language.Language) *Server {
	ls := &Server{
		languages: languages,
		documents: NewDocuments(),
		version:   version,
		log:       commonlog.GetLogger("caret.lsp"),
	}

	ls.handler = protocol.Handler{
		Initialize:             ls.initialize,
		Initialized:            ls.initialized,
		Shutdown:               ls.shutdown,
		SetTrace:               ls.setTrace,
		TextDocumentDidOpen:    ls.textDocumentDidOpen,
		TextDocumentDidChange:  ls.textDocumentDidChange,
		TextDocumentDidClose:   ls.textDocumentDidClose,
		TextDocumentDidSave:    ls.textDocumentDidSave,
		TextDocumentCompletion: ls.textDocumentCompletion,
	}

	ls.server = server.NewServer(&ls.handler, lsName, false)

	return ls
}

func (ls *Server) RunStdio() error {
	return ls.server.RunStdio()
}

// Documents returns the open documents.
func (ls *Server) Documents() *Documents {
	return ls.documents
}

func (ls *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	capabilities := ls.handler.CreateServerCapabilities()

	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    intPtr(int(protocol.TextDocumentSyncKindFull)),
		Save: &protocol.SaveOptions{
			IncludeText: boolPtr(true),
		},
	}
	capabilities.CompletionProvider = &protocol.CompletionOptions{}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: &ls.version,
		},
	}, nil
}

func (ls *Server) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	names := make([]string, len(ls.languages))
	for i, lang := range ls.languages {
		names[i] = lang.Name()
	}
	ls.log.Infof("serving %s", strings.Join(names, ", "))
	return nil
}

func (ls *Server) shutdown(ctx *glsp.Context) error {
	return nil
}

func (ls *Server) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (ls *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	ls.open(params.TextDocument.URI, []byte(params.TextDocument.Text), int32(params.TextDocument.Version))
	return nil
}

func (ls *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	if len(params.ContentChanges) == 0 {
		return nil
	}
	change := params.ContentChanges[len(params.ContentChanges)-1]
	if textChange, ok := change.(protocol.TextDocumentContentChangeEventWhole); ok {
		ls.documents.Update(params.TextDocument.URI, []byte(textChange.Text), int32(params.TextDocument.Version))
	}
	return nil
}

func (ls *Server) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	ls.documents.Close(params.TextDocument.URI)
	return nil
}

func (ls *Server) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	if params.Text == nil {
		return nil
	}
	doc := ls.documents.Get(params.TextDocument.URI)
	if doc == nil {
		return nil
	}
	ls.documents.Update(doc.URI, []byte(*params.Text), doc.Version)
	return nil
}

func (ls *Server) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	items := ls.complete(params.TextDocument.URI, params.Position)
	if len(items) == 0 {
		return nil, nil
	}
	return items, nil
}

// open stores a document if one of the languages handles it.
func (ls *Server) open(uri string, text []byte, version int32) bool {
	path, err := uriToPath(uri)
	if err != nil {
		ls.log.Warningf("open %s: %v", uri, err)
		return false
	}
	lang := ls.languageFor(path)
	if lang == nil {
		ls.log.Debugf("open %s: no language", uri)
		return false
	}
	ls.documents.Open(&Document{URI: uri, Language: lang, Text: text, Version: version})
	return true
}

func (ls *Server) languageFor(path string) *language.Language {
	for _, lang := range ls.languages {
		if lang.Matches(path) {
			return lang
		}
	}
	return nil
}

func (ls *Server) complete(uri string, pos protocol.Position) []protocol.CompletionItem {
	doc := ls.documents.Get(uri)
	if doc == nil {
		return nil
	}

	offset := Offset(doc.Text, int(pos.Line), int(pos.Character))
	result, err := doc.Language.Complete(doc.Text, offset, nil)
	if err != nil {
		ls.log.Errorf("complete %s at %d:%d: %v", uri, pos.Line, pos.Character, err)
		return nil
	}

	items := make([]protocol.CompletionItem, 0, len(result.Proposals))
	for _, p := range result.Proposals {
		items = append(items, toCompletionItem(p))
	}
	return items
}

func toCompletionItem(p language.Proposal) protocol.CompletionItem {
	kind := toProtocolKind(p.Kind)
	item := protocol.CompletionItem{
		Label: p.Label,
		Kind:  &kind,
	}
	if p.Detail != "" {
		detail := p.Detail
		item.Detail = &detail
	}
	if p.Insert != "" {
		insert := p.Insert
		item.InsertText = &insert
	}
	return item
}

func toProtocolKind(kind language.ProposalKind) protocol.CompletionItemKind {
	switch kind {
	case language.TokenProposal:
		return protocol.CompletionItemKindKeyword
	case language.RuleProposal:
		return protocol.CompletionItemKindModule
	default:
		return protocol.CompletionItemKindText
	}
}

func uriToPath(uri string) (string, error) {
	if strings.HasPrefix(uri, "file://") {
		parsed, err := url.Parse(uri)
		if err != nil {
			return "", err
		}
		return filepath.Clean(parsed.Path), nil
	}
	return uri, nil
}

func boolPtr(b bool) *bool {
	return &b
}

func intPtr(i int) *protocol.TextDocumentSyncKind {
	v := protocol.TextDocumentSyncKind(i)
	return &v
}
