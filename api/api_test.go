package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/trail/pkg/budget"
	"github.com/papercomputeco/trail/pkg/engine"
	"github.com/papercomputeco/trail/pkg/logger"
	"github.com/papercomputeco/trail/pkg/scratchpad"
	"github.com/papercomputeco/trail/pkg/session"
	"github.com/papercomputeco/trail/pkg/store"
	"github.com/papercomputeco/trail/pkg/store/fs"
)

var _ = Describe("Server", func() {
	var (
		server *Server
		repo   *store.Repository
		eng    *engine.Engine
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()

		driver, err := fs.NewDriver(filepath.Join(GinkgoT().TempDir(), "sessions"))
		Expect(err).NotTo(HaveOccurred())

		repo = store.NewRepository(store.RepositoryConfig{
			Driver:      driver,
			TotalTokens: 1000,
			Logger:      logger.Nop(),
		})

		eng, err = engine.New(engine.Config{
			Repo:   repo,
			Dirs:   driver,
			Logger: logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(eng.Close)

		server = NewServer(Config{ListenAddr: ":0"}, repo, eng, logger.Nop())
	})

	do := func(method, path string, body any) *http.Response {
		var reader io.Reader
		if body != nil {
			data, err := json.Marshal(body)
			Expect(err).NotTo(HaveOccurred())
			reader = bytes.NewReader(data)
		}

		req := httptest.NewRequest(method, path, reader)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := server.app.Test(req, -1)
		Expect(err).NotTo(HaveOccurred())
		return resp
	}

	decode := func(resp *http.Response, v any) {
		defer resp.Body.Close()
		Expect(json.NewDecoder(resp.Body).Decode(v)).To(Succeed())
	}

	It("responds to ping", func() {
		resp := do("GET", "/ping", nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
	})

	Describe("session lifecycle", func() {
		It("creates and fetches a session", func() {
			resp := do("POST", "/sessions", map[string]string{"id": "sess-1", "title": "why is prod slow"})
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))

			var rec session.Record
			decode(do("GET", "/sessions/sess-1", nil), &rec)
			Expect(rec.ID).To(Equal("sess-1"))
			Expect(rec.Title).To(Equal("why is prod slow"))
			Expect(rec.Status).To(Equal(session.StatusBacklog))
		})

		It("rejects duplicate session ids", func() {
			do("POST", "/sessions", map[string]string{"id": "sess-1"})
			resp := do("POST", "/sessions", map[string]string{"id": "sess-1"})
			Expect(resp.StatusCode).To(Equal(http.StatusConflict))
		})

		It("returns 404 for unknown sessions", func() {
			resp := do("GET", "/sessions/ghost", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))

			var body ErrorResponse
			decode(resp, &body)
			Expect(body.Error).To(ContainSubstring("not found"))
		})

		It("lists sessions", func() {
			do("POST", "/sessions", map[string]string{"id": "a"})
			do("POST", "/sessions", map[string]string{"id": "b"})

			var body struct {
				Count int `json:"count"`
			}
			decode(do("GET", "/sessions", nil), &body)
			Expect(body.Count).To(Equal(2))
		})

		It("deletes sessions", func() {
			do("POST", "/sessions", map[string]string{"id": "sess-1"})

			resp := do("DELETE", "/sessions/sess-1", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))

			resp = do("GET", "/sessions/sess-1", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})

		It("tears down live watches with the deleted record", func() {
			do("POST", "/sessions", map[string]string{"id": "sess-1"})

			sub, err := eng.Watch(ctx, "sess-1")
			Expect(err).NotTo(HaveOccurred())

			resp := do("DELETE", "/sessions/sess-1", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))

			Eventually(sub.Updates()).Should(BeClosed())
			Eventually(sub.Alerts()).Should(BeClosed())
		})
	})

	Describe("transitions", func() {
		BeforeEach(func() {
			do("POST", "/sessions", map[string]string{"id": "sess-1"})
		})

		It("moves a session forward", func() {
			var rec session.Record
			decode(do("POST", "/sessions/sess-1/transition", map[string]string{"to": "exploring"}), &rec)
			Expect(rec.Status).To(Equal(session.StatusExploring))
		})

		It("rejects backward transitions with a conflict", func() {
			do("POST", "/sessions/sess-1/transition", map[string]string{"to": "tensions"})

			resp := do("POST", "/sessions/sess-1/transition", map[string]string{"to": "exploring"})
			Expect(resp.StatusCode).To(Equal(http.StatusConflict))
		})

		It("rejects unknown statuses", func() {
			resp := do("POST", "/sessions/sess-1/transition", map[string]string{"to": "percolating"})
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("entities and memory", func() {
		BeforeEach(func() {
			do("POST", "/sessions", map[string]string{"id": "sess-1"})
		})

		It("appends a claim via envelope", func() {
			env := map[string]any{
				"type": "claim",
				"data": map[string]string{"content": "the cache is cold on deploy"},
			}

			var rec session.Record
			decode(do("POST", "/sessions/sess-1/entities", env), &rec)
			Expect(rec.Claims).To(HaveLen(1))
			Expect(rec.Claims[0].Content).To(Equal("the cache is cold on deploy"))
		})

		It("rejects malformed envelopes", func() {
			env := map[string]any{
				"type": "claim",
				"data": map[string]string{},
			}

			resp := do("POST", "/sessions/sess-1/entities", env)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("appends memory and promotes fragments", func() {
			var rec session.Record
			decode(do("POST", "/sessions/sess-1/memory", map[string]string{"text": "p99 spikes at 14:00"}), &rec)
			Expect(rec.Memory.Recent).To(HaveLen(1))

			fragID := rec.Memory.Recent[0].ID
			decode(do("POST", fmt.Sprintf("/sessions/sess-1/memory/%s/key", fragID), nil), &rec)
			Expect(rec.Memory.KeyEvidence).To(HaveLen(1))
			Expect(rec.Memory.Recent).To(BeEmpty())
		})

		It("404s when promoting a missing fragment", func() {
			resp := do("POST", "/sessions/sess-1/memory/nope/key", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})

		It("sets the head summary", func() {
			var rec session.Record
			decode(do("POST", "/sessions/sess-1/head", map[string]string{"text": "investigating cold caches"}), &rec)
			Expect(rec.Memory.Head).To(HaveLen(1))
		})
	})

	Describe("budget and compaction", func() {
		BeforeEach(func() {
			do("POST", "/sessions", map[string]string{"id": "sess-1"})
		})

		It("reports a budget snapshot", func() {
			do("POST", "/sessions/sess-1/memory", map[string]string{"text": "some evidence"})

			var snap budget.Snapshot
			decode(do("GET", "/sessions/sess-1/budget", nil), &snap)
			Expect(snap.Total).To(Equal(1000))
			Expect(snap.Used).To(BeNumerically(">", 0))
			Expect(snap.Status).To(Equal(budget.StatusNormal))
		})

		It("dry-run compaction does not persist", func() {
			do("POST", "/sessions/sess-1/memory", map[string]string{"text": "duplicate"})
			do("POST", "/sessions/sess-1/memory", map[string]string{"text": "duplicate"})

			var result struct {
				Deduped int `json:"deduped"`
			}
			decode(do("POST", "/sessions/sess-1/compact?dry_run=true", nil), &result)
			Expect(result.Deduped).To(Equal(1))

			rec, err := repo.Get(ctx, "sess-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.Memory.Recent).To(HaveLen(2))
		})

		It("real compaction persists", func() {
			do("POST", "/sessions/sess-1/memory", map[string]string{"text": "duplicate"})
			do("POST", "/sessions/sess-1/memory", map[string]string{"text": "duplicate"})

			resp := do("POST", "/sessions/sess-1/compact", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			rec, err := repo.Get(ctx, "sess-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.Memory.Recent).To(HaveLen(1))
		})

		It("rejects unknown tiers", func() {
			resp := do("POST", "/sessions/sess-1/compact?tier=lukewarm", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("resume", func() {
		It("projects the scratchpad and stamps last_resumed", func() {
			do("POST", "/sessions", map[string]string{"id": "sess-1", "title": "t"})
			do("POST", "/sessions/sess-1/head", map[string]string{"text": "summary"})
			do("POST", "/sessions/sess-1/memory", map[string]string{"text": "recent detail"})

			var payload scratchpad.Payload
			decode(do("GET", "/sessions/sess-1/resume", nil), &payload)
			Expect(payload.SessionID).To(Equal("sess-1"))
			Expect(payload.Head).To(ConsistOf("summary"))
			Expect(payload.Recent).To(ConsistOf("recent detail"))

			rec, err := repo.Get(ctx, "sess-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.LastResumed).NotTo(BeNil())
		})
	})

	Describe("fork", func() {
		It("creates a child carrying entities", func() {
			do("POST", "/sessions", map[string]string{"id": "parent"})
			do("POST", "/sessions/parent/entities", map[string]any{
				"type": "claim",
				"data": map[string]string{"content": "carried claim"},
			})

			var child session.Record
			decode(do("POST", "/sessions/parent/fork", map[string]string{"id": "child", "title": "branch"}), &child)
			Expect(child.ID).To(Equal("child"))
			Expect(child.ParentID).NotTo(BeNil())
			Expect(*child.ParentID).To(Equal("parent"))
			Expect(child.Claims).To(HaveLen(1))
			Expect(child.Status).To(Equal(session.StatusExploring))
		})
	})
})
