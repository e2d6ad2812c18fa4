package sessioncmder_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	sessioncmder "github.com/papercomputeco/trail/cmd/trail/session"
	"github.com/papercomputeco/trail/pkg/dotdir"
)

var _ = Describe("NewSessionCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := sessioncmder.NewSessionCmd()
		Expect(cmd.Use).To(Equal("session"))
	})

	It("has all lifecycle subcommands", func() {
		cmd := sessioncmder.NewSessionCmd()
		cmds := cmd.Commands()
		subcommands := make([]string, 0, len(cmds))
		for _, sub := range cmds {
			subcommands = append(subcommands, sub.Name())
		}
		Expect(subcommands).To(ContainElements(
			"create", "list", "note", "head", "budget", "resume", "transition", "fork", "use", "delete",
		))
	})
})

var _ = Describe("Session command execution", func() {
	var trailDir string

	newCmd := func(args ...string) *cobra.Command {
		cmd := sessioncmder.NewSessionCmd()
		cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
		cmd.PersistentFlags().String("config-dir", "", "Override path to .trail/ config directory")
		cmd.SetArgs(append(args, "--config-dir", trailDir))
		return cmd
	}

	BeforeEach(func() {
		trailDir = filepath.Join(GinkgoT().TempDir(), ".trail")
	})

	Describe("create", func() {
		It("creates a session snapshot on disk", func() {
			err := newCmd("create", "sess-1", "--title", "why is prod slow").Execute()
			Expect(err).NotTo(HaveOccurred())

			_, err = os.Stat(filepath.Join(trailDir, "sessions", "sess_sess-1", "session.json"))
			Expect(err).NotTo(HaveOccurred())
		})

		It("makes the new session current", func() {
			err := newCmd("create", "sess-1").Execute()
			Expect(err).NotTo(HaveOccurred())

			state, err := dotdir.NewManager().LoadCurrentState(trailDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(state).NotTo(BeNil())
			Expect(state.SessionID).To(Equal("sess-1"))
		})

		It("rejects duplicate ids", func() {
			Expect(newCmd("create", "sess-1").Execute()).To(Succeed())
			Expect(newCmd("create", "sess-1").Execute()).To(HaveOccurred())
		})
	})

	Describe("list", func() {
		It("runs without error on an empty store", func() {
			Expect(newCmd("list").Execute()).To(Succeed())
		})

		It("runs without error with sessions present", func() {
			Expect(newCmd("create", "a").Execute()).To(Succeed())
			Expect(newCmd("create", "b").Execute()).To(Succeed())
			Expect(newCmd("list").Execute()).To(Succeed())
		})
	})

	Describe("budget", func() {
		It("prints the snapshot for an explicit id", func() {
			Expect(newCmd("create", "sess-1").Execute()).To(Succeed())
			Expect(newCmd("budget", "sess-1").Execute()).To(Succeed())
		})

		It("falls back to the current session", func() {
			Expect(newCmd("create", "sess-1").Execute()).To(Succeed())
			Expect(newCmd("budget").Execute()).To(Succeed())
		})

		It("errors when no id is given and none is current", func() {
			Expect(newCmd("budget").Execute()).To(HaveOccurred())
		})

		It("errors for unknown sessions", func() {
			Expect(newCmd("budget", "ghost").Execute()).To(HaveOccurred())
		})
	})

	Describe("note and head", func() {
		It("appends a fragment to the current session", func() {
			Expect(newCmd("create", "sess-1").Execute()).To(Succeed())
			Expect(newCmd("note", "p99 spikes at 14:00").Execute()).To(Succeed())
		})

		It("sets the head summary for an explicit session", func() {
			Expect(newCmd("create", "sess-1").Execute()).To(Succeed())
			Expect(newCmd("head", "investigating cold caches", "--session", "sess-1").Execute()).To(Succeed())
		})

		It("errors when no session is current", func() {
			Expect(newCmd("note", "orphan note").Execute()).To(HaveOccurred())
		})
	})

	Describe("resume", func() {
		It("projects the scratchpad for the current session", func() {
			Expect(newCmd("create", "sess-1").Execute()).To(Succeed())
			Expect(newCmd("resume").Execute()).To(Succeed())
		})
	})

	Describe("transition", func() {
		It("moves the current session forward", func() {
			Expect(newCmd("create", "sess-1").Execute()).To(Succeed())
			Expect(newCmd("transition", "exploring").Execute()).To(Succeed())
		})

		It("rejects unknown statuses", func() {
			Expect(newCmd("create", "sess-1").Execute()).To(Succeed())
			Expect(newCmd("transition", "percolating").Execute()).To(HaveOccurred())
		})

		It("rejects backward transitions", func() {
			Expect(newCmd("create", "sess-1").Execute()).To(Succeed())
			Expect(newCmd("transition", "tensions").Execute()).To(Succeed())
			Expect(newCmd("transition", "exploring").Execute()).To(HaveOccurred())
		})
	})

	Describe("fork", func() {
		It("creates a child from the current session", func() {
			Expect(newCmd("create", "parent").Execute()).To(Succeed())
			Expect(newCmd("fork", "child").Execute()).To(Succeed())

			_, err := os.Stat(filepath.Join(trailDir, "sessions", "sess_child", "session.json"))
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("use", func() {
		It("sets the current session", func() {
			Expect(newCmd("create", "a").Execute()).To(Succeed())
			Expect(newCmd("create", "b").Execute()).To(Succeed())
			Expect(newCmd("use", "a").Execute()).To(Succeed())

			state, err := dotdir.NewManager().LoadCurrentState(trailDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(state.SessionID).To(Equal("a"))
		})

		It("rejects unknown sessions", func() {
			Expect(newCmd("use", "ghost").Execute()).To(HaveOccurred())
		})

		It("clears the current session with no argument", func() {
			Expect(newCmd("create", "a").Execute()).To(Succeed())
			Expect(newCmd("use").Execute()).To(Succeed())

			state, err := dotdir.NewManager().LoadCurrentState(trailDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(state).To(BeNil())
		})
	})

	Describe("delete", func() {
		It("removes the snapshot and clears the current pointer", func() {
			Expect(newCmd("create", "sess-1").Execute()).To(Succeed())
			Expect(newCmd("delete", "sess-1").Execute()).To(Succeed())

			_, err := os.Stat(filepath.Join(trailDir, "sessions", "sess_sess-1"))
			Expect(os.IsNotExist(err)).To(BeTrue())

			state, err := dotdir.NewManager().LoadCurrentState(trailDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(state).To(BeNil())
		})

		It("errors for unknown sessions", func() {
			Expect(newCmd("delete", "ghost").Execute()).To(HaveOccurred())
		})
	})
})
