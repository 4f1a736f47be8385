package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dgallion1/outlinesync/internal/config"
	"github.com/dgallion1/outlinesync/internal/outline"
	"github.com/dgallion1/outlinesync/internal/parser"
	"github.com/dgallion1/outlinesync/internal/settings"
	"github.com/dgallion1/outlinesync/internal/stats"
	"github.com/dgallion1/outlinesync/internal/transcript"
	"github.com/google/uuid"
)

// ErrStopped is returned when work is submitted after Stop.
var ErrStopped = errors.New("session manager stopped")

type importJob struct {
	sess     *Session
	filename string
	data     []byte
}

// Manager owns every session, the import workers and the cleanup loop.
type Manager struct {
	store    *Store
	settings *settings.Store
	stats    *stats.RefreshStats
	queue    chan *importJob
	log      *slog.Logger
	cfg      config.Config

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewManager creates a manager. Call Start before creating sessions.
func NewManager(cfg config.Config, st *settings.Store, rs *stats.RefreshStats, log *slog.Logger) *Manager {
	return &Manager{
		store:    NewStore(cfg.SessionTTL),
		settings: st,
		stats:    rs,
		queue:    make(chan *importJob, cfg.MaxQueueSize),
		log:      log,
		cfg:      cfg,
	}
}

// Start launches import workers and the session cleanup loop.
func (m *Manager) Start(ctx context.Context) {
	m.ctx, m.cancel = context.WithCancel(ctx)

	for range m.cfg.WorkerCount {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			for {
				select {
				case <-m.ctx.Done():
					return
				case job := <-m.queue:
					m.process(job)
				}
			}
		}()
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-m.ctx.Done():
				return
			case <-ticker.C:
				m.Cleanup()
			}
		}
	}()
}

// Stop cancels every session and waits for all goroutines to exit.
func (m *Manager) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}

// Create starts an empty session.
func (m *Manager) Create(title string) (*Session, error) {
	return m.create(title, "", StatusReady)
}

func (m *Manager) create(title, filename string, status Status) (*Session, error) {
	if m.ctx == nil || m.ctx.Err() != nil {
		return nil, ErrStopped
	}

	id := uuid.NewString()
	now := time.Now()
	doc := transcript.New(m.cfg.LayoutWidth)
	doc.SetViewportHeight(float64(m.cfg.ViewportHeight))

	if strings.TrimSpace(title) == "" {
		title = "Untitled chat"
	}
	sess := &Session{
		ID:        id,
		Title:     title,
		Filename:  filename,
		status:    status,
		createdAt: now,
		updatedAt: now,
		Document:  doc,
		done:      make(chan struct{}),
	}
	sess.Outline = outline.New(transcript.NewAdapter(doc), m.settings.Get().Outline(),
		outline.WithLogger(m.log.With("session_id", id)),
		outline.WithMutationSource(doc),
		outline.WithTimings(outline.Timings{
			Debounce:       m.cfg.Debounce,
			PostGeneration: m.cfg.PostGenerationDelay,
			Fallback:       m.cfg.FallbackDelay,
		}),
		outline.WithExpandLevelCallback(m.settings.SetExpandLevel),
		outline.WithShowUserQueriesCallback(m.settings.SetShowUserQueries),
		outline.WithRefreshObserver(m.stats.Record),
	)

	ctx, cancel := context.WithCancel(m.ctx)
	sess.cancel = cancel
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer close(sess.done)
		if err := sess.Outline.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			m.log.Warn("outline scheduler stopped", "session_id", id, "error", err)
		}
	}()
	sess.Outline.SetActive(true)

	m.store.Put(sess)
	m.log.Info("session created", "session_id", id, "title", title)
	return sess, nil
}

// Import creates a session and queues the file for parsing.
func (m *Manager) Import(title, filename string, data []byte) (*Session, error) {
	if !parser.IsSupportedExtension(filename) {
		return nil, fmt.Errorf("unsupported file type: %s", filename)
	}
	if title == "" {
		title = filename
	}
	sess, err := m.create(title, filename, StatusImporting)
	if err != nil {
		return nil, err
	}

	select {
	case m.queue <- &importJob{sess: sess, filename: filename, data: data}:
		return sess, nil
	default:
		sess.SetStatus(StatusFailed, "queue_full")
		return sess, fmt.Errorf("import queue is full (%d)", m.cfg.MaxQueueSize)
	}
}

func (m *Manager) process(job *importJob) {
	log := m.log.With("session_id", job.sess.ID, "filename", job.filename)

	p, err := parser.ForFile(job.filename)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.sess.SetStatus(StatusFailed, err.Error())
		return
	}
	if pdf, ok := p.(*parser.PDFParser); ok {
		pdf.FallbackPdftotext = m.cfg.PDFFallbackPdftotext
	}

	msgs, err := p.Parse(bytes.NewReader(job.data), job.filename)
	if err != nil {
		log.Error("import failed", "error", err)
		job.sess.SetStatus(StatusFailed, fmt.Sprintf("parse: %s", err))
		return
	}

	job.sess.Document.Replace(msgs)
	job.sess.Outline.Refresh()
	job.sess.SetStatus(StatusReady, "")
	log.Info("import complete", "messages", len(msgs))
}

// Get returns a session by ID and marks it used.
func (m *Manager) Get(id string) *Session {
	sess := m.store.Get(id)
	if sess != nil {
		sess.Touch()
	}
	return sess
}

// List returns snapshots of all sessions, oldest first.
func (m *Manager) List() []Snapshot {
	sessions := m.store.List()
	out := make([]Snapshot, len(sessions))
	for i, s := range sessions {
		out[i] = s.Snapshot()
	}
	return out
}

// Delete stops and removes a session.
func (m *Manager) Delete(id string) bool {
	sess := m.store.Delete(id)
	if sess == nil {
		return false
	}
	sess.stop()
	m.log.Info("session deleted", "session_id", id)
	return true
}

// Cleanup stops and removes idle sessions.
func (m *Manager) Cleanup() int {
	expired := m.store.Cleanup()
	for _, sess := range expired {
		sess.stop()
	}
	if len(expired) > 0 {
		m.log.Info("expired sessions removed", "count", len(expired))
	}
	return len(expired)
}

// ApplySettings pushes changed user settings to every session.
func (m *Manager) ApplySettings(s settings.Settings) {
	for _, sess := range m.store.List() {
		sess.Outline.UpdateSettings(s.Outline())
	}
}

// QueueDepth returns the number of pending imports.
func (m *Manager) QueueDepth() int {
	return len(m.queue)
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	return m.store.Len()
}
