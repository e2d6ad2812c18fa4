package store_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/trail/pkg/store"
)

var _ = Describe("ValidateID", func() {
	It("accepts alphanumerics, dashes and underscores", func() {
		Expect(store.ValidateID("sess-01_A")).To(Succeed())
	})

	It("rejects empty ids", func() {
		Expect(store.ValidateID("")).NotTo(Succeed())
	})

	It("rejects path traversal attempts", func() {
		Expect(store.ValidateID("../etc/passwd")).NotTo(Succeed())
		Expect(store.ValidateID("a/b")).NotTo(Succeed())
		Expect(store.ValidateID("a.b")).NotTo(Succeed())
	})

	It("rejects oversized ids", func() {
		Expect(store.ValidateID(strings.Repeat("a", 200))).NotTo(Succeed())
	})
})
