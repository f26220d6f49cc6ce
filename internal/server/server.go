package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/lodestone-ai/lodestone/internal/config"
	"github.com/lodestone-ai/lodestone/internal/core/extraction"
	"github.com/lodestone-ai/lodestone/internal/core/generate"
	"github.com/lodestone-ai/lodestone/internal/core/ingest"
	"github.com/lodestone-ai/lodestone/internal/core/model"
	"github.com/lodestone-ai/lodestone/internal/core/risk"
	"github.com/lodestone-ai/lodestone/internal/core/session"
	"github.com/lodestone-ai/lodestone/internal/core/snapshot"
	"github.com/lodestone-ai/lodestone/internal/core/wiki"
	"github.com/lodestone-ai/lodestone/internal/library"
	"github.com/lodestone-ai/lodestone/internal/llm"
)

// Server is the orchestrating layer: it owns the shared mutable state
// (document library, wiki graph, risk register, chat session) and serializes
// every mutation behind one mutex, so the core components stay free of
// locking.
type Server struct {
	mu sync.Mutex

	Library   *library.Library
	Wiki      *wiki.Store
	Risks     *risk.Register
	Sessions  *session.Manager
	Ingestor  *ingest.Ingestor
	Generator *generate.Generator
}

func NewServer() *Server {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.toml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Env overrides win over TOML.
	if envProvider := os.Getenv("LLM_PROVIDER"); envProvider != "" {
		cfg.LLM.Provider = envProvider
	}
	if envModel := os.Getenv("LLM_MODEL"); envModel != "" {
		cfg.LLM.Model = envModel
	}
	if envAPIKey := os.Getenv("LLM_API_KEY"); envAPIKey != "" {
		cfg.LLM.APIKey = envAPIKey
	}
	if envBaseURL := os.Getenv("LLM_BASE_URL"); envBaseURL != "" {
		cfg.LLM.BaseURL = envBaseURL
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "gemini"
	}
	if cfg.LLM.APIKey == "" && cfg.LLM.Provider != "ollama" {
		log.Fatalf("Missing model API key: set LLM_API_KEY or llm.api_key in %s", cfgPath)
	}

	llmClient, err := llm.NewClient(context.Background(), cfg.LLM)
	if err != nil {
		log.Fatalf("Failed to initialize LLM client: %v", err)
	}

	extractor := extraction.NewExtractor(llmClient, cfg.Extraction)

	return &Server{
		Library:   library.New(),
		Wiki:      wiki.NewStore(llmClient, cfg.Wiki),
		Risks:     risk.NewRegister(),
		Sessions:  session.NewManager(llmClient, cfg.Chat, cfg.Limits),
		Ingestor:  ingest.NewIngestor(extractor, cfg.Limits),
		Generator: generate.NewGenerator(llmClient, cfg.Generate),
	}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.Default()

	r.GET("/files", s.ListFiles)
	r.POST("/files", s.UploadFiles)
	r.DELETE("/files/:id", s.DeleteFile)
	r.POST("/files/:id/ingest", s.IngestFile)

	r.POST("/chat", s.Chat)
	r.POST("/chat/reset", s.ResetChat)

	r.GET("/wiki", s.WikiOverview)
	r.GET("/wiki/node/:term", s.WikiNode)
	r.POST("/wiki/node/:term/expand", s.ExpandNode)
	r.PUT("/wiki/node/:term/notes", s.UpdateNotes)
	r.POST("/wiki/node/:term/attachments", s.AttachFile)
	r.DELETE("/wiki/node/:term/attachments/:fileId", s.DetachFile)
	r.POST("/wiki/entries", s.AddEntry)
	r.POST("/wiki/move", s.MoveEntry)
	r.POST("/wiki/suggest-parent", s.SuggestParent)
	r.POST("/wiki/navigate", s.Navigate)
	r.GET("/wiki/export", s.ExportWiki)
	r.POST("/wiki/import", s.ImportWiki)

	r.GET("/risks", s.ListRisks)
	r.POST("/risks", s.AddRisk)
	r.PUT("/risks/:id", s.UpdateRisk)
	r.POST("/risks/generate", s.GenerateRisks)

	r.POST("/generate/report", s.GenerateReport)
	r.POST("/generate/email", s.GenerateEmail)

	r.GET("/snapshot", s.ExportSnapshot)
	r.POST("/snapshot", s.ImportSnapshot)

	return r
}

type UploadFileRequest struct {
	Name     string `json:"name"`
	MIMEType string `json:"mimeType"`
	Content  string `json:"content"`
	Data     []byte `json:"data"`
}

type UploadRequest struct {
	Files []UploadFileRequest `json:"files"`
}

func (s *Server) UploadFiles(c *gin.Context) {
	var req UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var added []*model.LocalFile
	var skipped []string
	for _, f := range req.Files {
		payload := f.Data
		if len(payload) == 0 {
			payload = []byte(f.Content)
		}
		file, err := s.Library.Add(f.Name, f.MIMEType, payload)
		if err != nil {
			log.Printf("Skipping upload %s: %v", f.Name, err)
			skipped = append(skipped, f.Name)
			continue
		}
		added = append(added, file)
	}

	c.JSON(http.StatusOK, gin.H{"files": added, "skipped": skipped})
}

func (s *Server) ListFiles(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"files": s.Library.Files()})
}

func (s *Server) DeleteFile(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.Library.Remove(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// IngestFile runs the full pipeline for one document. The mutex keeps
// ingestions one at a time in arrival order; Ingest itself never fails past
// its boundary.
func (s *Server) IngestFile(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, ok := s.Library.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
		return
	}

	file.Processing = true
	data := s.Ingestor.Ingest(c.Request.Context(), file)
	s.Library.SetProcessed(file.ID, data)

	c.JSON(http.StatusOK, gin.H{"processedData": data})
}

type ChatRequest struct {
	Message string `json:"message"`
}

// Chat streams the model's reply as server-sent events: message events carry
// text deltas, and the terminal event is either done or error. A partial
// response already streamed stays with the client either way.
func (s *Server) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	flusher, _ := c.Writer.(http.Flusher)
	err := s.Sessions.Send(c.Request.Context(), req.Message, s.Library.Files(), func(delta string) error {
		if _, werr := fmt.Fprintf(c.Writer, "data: %q\n\n", delta); werr != nil {
			return werr
		}
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	})
	if err != nil {
		log.Printf("Chat stream failed: %v", err)
		fmt.Fprintf(c.Writer, "event: error\ndata: %q\n\n", err.Error())
	} else {
		fmt.Fprint(c.Writer, "event: done\ndata: \n\n")
	}
	if flusher != nil {
		flusher.Flush()
	}
}

func (s *Server) ResetChat(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Sessions.Reset()
	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}

func (s *Server) WikiOverview(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{
		"nodes": s.Wiki.NodeNames(),
		"path":  s.Wiki.Path(),
	})
}

func (s *Server) WikiNode(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	term := c.Param("term")
	node := s.Wiki.Node(term)
	if node == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Node not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"term":     term,
		"node":     node,
		"isBranch": s.Wiki.IsBranch(term),
	})
}

type ExpandRequest struct {
	Context string `json:"context"`
}

func (s *Server) ExpandNode(c *gin.Context) {
	var req ExpandRequest
	_ = c.ShouldBindJSON(&req)

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.Wiki.Expand(c.Request.Context(), c.Param("term"), req.Context)
	if err != nil {
		log.Printf("Failed to expand node: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to expand node"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

type NotesRequest struct {
	Notes string `json:"notes"`
}

func (s *Server) UpdateNotes(c *gin.Context) {
	var req NotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Wiki.UpdateNotes(c.Param("term"), req.Notes)
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

type AttachRequest struct {
	FileID string `json:"fileId"`
}

func (s *Server) AttachFile(c *gin.Context) {
	var req AttachRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	file, ok := s.Library.Get(req.FileID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
		return
	}
	s.Wiki.AddAttachment(c.Param("term"), file)
	c.JSON(http.StatusOK, gin.H{"status": "attached"})
}

func (s *Server) DetachFile(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Wiki.RemoveAttachment(c.Param("term"), c.Param("fileId"))
	c.JSON(http.StatusOK, gin.H{"status": "detached"})
}

type AddEntryRequest struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
	Parent     string `json:"parent"`
}

func (s *Server) AddEntry(c *gin.Context) {
	var req AddEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Term == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.Wiki.AddManualEntry(req.Term, req.Definition, req.Parent); err != nil {
		// Duplicate placement is an expected race, not a failure.
		c.JSON(http.StatusOK, gin.H{"status": "rejected", "reason": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "added"})
}

type MoveEntryRequest struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
	FromParent string `json:"fromParent"`
	ToParent   string `json:"toParent"`
}

func (s *Server) MoveEntry(c *gin.Context) {
	var req MoveEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.Wiki.MoveEntry(req.Term, req.Definition, req.FromParent, req.ToParent); err != nil {
		c.JSON(http.StatusOK, gin.H{"status": "rejected", "reason": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "moved"})
}

type SuggestParentRequest struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
}

func (s *Server) SuggestParent(c *gin.Context) {
	var req SuggestParentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	suggestion := s.Wiki.SuggestParent(c.Request.Context(), req.Term, req.Definition, s.Wiki.NodeNames())
	c.JSON(http.StatusOK, suggestion)
}

type NavigateRequest struct {
	Action string `json:"action"` // drill, back, home
	Term   string `json:"term"`
}

func (s *Server) Navigate(c *gin.Context) {
	var req NavigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	switch req.Action {
	case "drill":
		s.Wiki.DrillInto(req.Term)
	case "back":
		s.Wiki.Back()
	case "home":
		s.Wiki.Home()
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown navigation action"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"path": s.Wiki.Path()})
}

func (s *Server) ListRisks(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"risks": s.Risks.Items()})
}

func (s *Server) AddRisk(c *gin.Context) {
	var item model.RiskItem
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, s.Risks.Add(item))
}

func (s *Server) UpdateRisk(c *gin.Context) {
	var item model.RiskItem
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	item.ID = c.Param("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.Risks.Update(item); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

func (s *Server) GenerateRisks(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.Generator.RiskMatrix(c.Request.Context(), s.Library.Files())
	if err != nil {
		c.JSON(generationStatus(err), gin.H{"error": err.Error()})
		return
	}
	s.Risks.AddDraft(data)
	c.JSON(http.StatusOK, gin.H{"risks": s.Risks.Items()})
}

func (s *Server) GenerateReport(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text, err := s.Generator.Report(c.Request.Context(), s.Library.Files())
	if err != nil {
		c.JSON(generationStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": text})
}

type EmailRequest struct {
	Instructions string `json:"instructions"`
}

func (s *Server) GenerateEmail(c *gin.Context) {
	var req EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	text, err := s.Generator.Email(c.Request.Context(), s.Library.Files(), req.Instructions)
	if err != nil {
		c.JSON(generationStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"email": text})
}

// generationStatus maps the classified generation errors onto HTTP statuses
// the client can act on.
func generationStatus(err error) int {
	switch {
	case errors.Is(err, generate.ErrSafetyBlocked):
		return http.StatusUnprocessableEntity
	case errors.Is(err, generate.ErrTokenLimit):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) ExportSnapshot(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := snapshot.Export(s.Library.Files(), s.Wiki.Nodes(), s.Risks.Data())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export snapshot"})
		return
	}
	c.Data(http.StatusOK, "application/json", data)
}

// ImportSnapshot is all-or-nothing: validation happens before any state is
// touched, and a rejected import leaves everything as it was.
func (s *Server) ImportSnapshot(c *gin.Context) {
	data, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	files, wikiNodes, riskData, err := snapshot.Import(data)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.Library.Replace(files)
	s.Wiki.Replace(wikiNodes)
	s.Risks.Replace(riskData)
	s.Sessions.Reset()
	c.JSON(http.StatusOK, gin.H{"status": "imported", "path": s.Wiki.Path()})
}

func (s *Server) ExportWiki(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := snapshot.ExportWiki(s.Wiki.Nodes())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export wiki"})
		return
	}
	c.Data(http.StatusOK, "application/json", data)
}

func (s *Server) ImportWiki(c *gin.Context) {
	data, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	wikiNodes, err := snapshot.ImportWiki(data)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.Wiki.Replace(wikiNodes)
	c.JSON(http.StatusOK, gin.H{"status": "imported"})
}
