package mppi

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestMPPISuite(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "MPPI Core Suite")
}
