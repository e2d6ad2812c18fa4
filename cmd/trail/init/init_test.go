package initcmder_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	initcmder "github.com/papercomputeco/trail/cmd/trail/init"
)

var _ = Describe("Init command execution", func() {
	var (
		tmpDir  string
		origDir string
	)

	BeforeEach(func() {
		var err error
		tmpDir = GinkgoT().TempDir()

		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())

		Expect(os.Chdir(tmpDir)).To(Succeed())
	})

	AfterEach(func() {
		Expect(os.Chdir(origDir)).To(Succeed())
	})

	It("creates a local .trail directory", func() {
		cmd := initcmder.NewInitCmd()
		Expect(cmd.Execute()).To(Succeed())

		info, err := os.Stat(filepath.Join(tmpDir, ".trail"))
		Expect(err).NotTo(HaveOccurred())
		Expect(info.IsDir()).To(BeTrue())
	})

	It("is idempotent", func() {
		Expect(initcmder.NewInitCmd().Execute()).To(Succeed())
		Expect(initcmder.NewInitCmd().Execute()).To(Succeed())
	})

	It("rejects arguments", func() {
		cmd := initcmder.NewInitCmd()
		cmd.SetArgs([]string{"extra"})
		Expect(cmd.Execute()).To(HaveOccurred())
	})
})
