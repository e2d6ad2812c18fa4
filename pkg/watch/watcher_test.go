package watch_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/trail/pkg/logger"
	"github.com/papercomputeco/trail/pkg/watch"
)

var _ = Describe("Watcher", func() {
	var (
		dir string
		w   *watch.Watcher
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		w = watch.New(watch.Config{
			Window: 40 * time.Millisecond,
			Logger: logger.New(logger.WithWriter(GinkgoWriter)),
		})
	})

	AfterEach(func() {
		w.Close()
	})

	write := func(name, content string) {
		Expect(os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644)).To(Succeed())
	}

	It("delivers one settle for a burst of writes", func() {
		Expect(w.Watch("sess-1", dir)).To(Succeed())

		for i := range 5 {
			write("session.json", string(rune('a'+i)))
			time.Sleep(5 * time.Millisecond)
		}

		Eventually(w.Settled(), time.Second).Should(Receive(Equal("sess-1")))
		Consistently(w.Settled(), 150*time.Millisecond).ShouldNot(Receive())
	})

	It("delivers separate settles for separate batches", func() {
		Expect(w.Watch("sess-1", dir)).To(Succeed())

		write("session.json", "one")
		Eventually(w.Settled(), time.Second).Should(Receive(Equal("sess-1")))

		write("session.json", "two")
		Eventually(w.Settled(), time.Second).Should(Receive(Equal("sess-1")))
	})

	It("is idempotent for an already-watched session", func() {
		Expect(w.Watch("sess-1", dir)).To(Succeed())
		Expect(w.Watch("sess-1", dir)).To(Succeed())

		write("session.json", "x")

		Eventually(w.Settled(), time.Second).Should(Receive(Equal("sess-1")))
		Consistently(w.Settled(), 150*time.Millisecond).ShouldNot(Receive())
	})

	It("stops delivering after Unwatch", func() {
		Expect(w.Watch("sess-1", dir)).To(Succeed())
		write("session.json", "x")
		Eventually(w.Settled(), time.Second).Should(Receive())

		w.Unwatch("sess-1")
		write("session.json", "y")

		Consistently(w.Settled(), 200*time.Millisecond).ShouldNot(Receive())
	})

	It("tolerates Unwatch for a session that was never watched", func() {
		w.Unwatch("ghost")
	})

	It("survives Unwatch racing an in-flight Watch", func() {
		// Hammer the setup/teardown race; none of the iterations may leak a
		// delivery or wedge the watcher.
		for range 50 {
			done := make(chan struct{})
			go func() {
				defer close(done)
				Expect(w.Watch("sess-1", dir)).To(Succeed())
			}()
			w.Unwatch("sess-1")
			<-done
			w.Unwatch("sess-1")
		}

		// The watcher still works for a fresh watch afterwards.
		Expect(w.Watch("sess-1", dir)).To(Succeed())
		write("session.json", "still alive")
		Eventually(w.Settled(), time.Second).Should(Receive(Equal("sess-1")))
	})

	It("errors for a directory that does not exist", func() {
		Expect(w.Watch("sess-1", filepath.Join(dir, "missing"))).NotTo(Succeed())

		// The failed watch leaves no registration behind.
		Expect(w.Watch("sess-1", dir)).To(Succeed())
	})

	It("applies the path filter", func() {
		filtered := watch.New(watch.Config{
			Window: 40 * time.Millisecond,
			Filter: func(name string) bool {
				return filepath.Base(name) == "session.json"
			},
			Logger: logger.New(logger.WithWriter(GinkgoWriter)),
		})
		defer filtered.Close()

		Expect(filtered.Watch("sess-1", dir)).To(Succeed())

		write("scratch.txt", "noise")
		Consistently(filtered.Settled(), 150*time.Millisecond).ShouldNot(Receive())

		write("session.json", "signal")
		Eventually(filtered.Settled(), time.Second).Should(Receive(Equal("sess-1")))
	})

	It("rejects watches after Close", func() {
		w.Close()
		Expect(w.Watch("sess-1", dir)).To(MatchError(watch.ErrClosed))
	})
})
