package memory

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"travelkeep/internal/profile/store/storetest"
)

type MemoryStoreSuite struct {
	storetest.AdapterSuite
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, &MemoryStoreSuite{
		AdapterSuite: storetest.AdapterSuite{
			Factory: func() storetest.Adapter { return New() },
		},
	})
}
