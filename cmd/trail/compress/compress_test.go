package compresscmder_test

import (
	"context"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	compresscmder "github.com/papercomputeco/trail/cmd/trail/compress"
	sessioncmder "github.com/papercomputeco/trail/cmd/trail/session"
	"github.com/papercomputeco/trail/pkg/logger"
	"github.com/papercomputeco/trail/pkg/memory"
	"github.com/papercomputeco/trail/pkg/store"
	"github.com/papercomputeco/trail/pkg/store/fs"
)

var _ = Describe("Compress command execution", func() {
	var trailDir string

	withFlags := func(cmd *cobra.Command, args ...string) *cobra.Command {
		cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
		cmd.PersistentFlags().String("config-dir", "", "Override path to .trail/ config directory")
		cmd.SetArgs(append(args, "--config-dir", trailDir))
		return cmd
	}

	sessionCmd := func(args ...string) *cobra.Command {
		return withFlags(sessioncmder.NewSessionCmd(), args...)
	}

	compressCmd := func(args ...string) *cobra.Command {
		return withFlags(compresscmder.NewCompressCmd(), args...)
	}

	openRepo := func() *store.Repository {
		driver, err := fs.NewDriver(filepath.Join(trailDir, "sessions"))
		Expect(err).NotTo(HaveOccurred())
		return store.NewRepository(store.RepositoryConfig{
			Driver: driver,
			Logger: logger.Nop(),
		})
	}

	BeforeEach(func() {
		trailDir = filepath.Join(GinkgoT().TempDir(), ".trail")

		Expect(sessionCmd("create", "sess-1").Execute()).To(Succeed())
		Expect(sessionCmd("note", "duplicate finding").Execute()).To(Succeed())
		Expect(sessionCmd("note", "duplicate finding").Execute()).To(Succeed())
	})

	Describe("suggest", func() {
		It("previews without persisting", func() {
			Expect(compressCmd("suggest", "sess-1").Execute()).To(Succeed())

			rec, err := openRepo().Get(context.Background(), "sess-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.Memory.FragmentCount(memory.TierRecent)).To(Equal(2))
		})

		It("falls back to the current session", func() {
			Expect(compressCmd("suggest").Execute()).To(Succeed())
		})

		It("rejects unknown tiers", func() {
			Expect(compressCmd("suggest", "sess-1", "--tier", "lukewarm").Execute()).To(HaveOccurred())
		})
	})

	Describe("run", func() {
		It("compacts and persists", func() {
			Expect(compressCmd("run", "sess-1").Execute()).To(Succeed())

			rec, err := openRepo().Get(context.Background(), "sess-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.Memory.FragmentCount(memory.TierRecent)).To(Equal(1))
		})

		It("errors for unknown sessions", func() {
			Expect(compressCmd("run", "ghost").Execute()).To(HaveOccurred())
		})
	})
})
