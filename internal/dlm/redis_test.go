package dlm_test

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredislib "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/tradeclash/arena/internal/dlm"
)

type DLMTestSuite struct {
	suite.Suite
	server *miniredis.Miniredis
	dlm    dlm.DLM
}

func (suite *DLMTestSuite) SetupTest() {
	var err error
	suite.server, err = miniredis.Run()
	require.NoError(suite.T(), err)
	suite.dlm = dlm.NewRedisDLM("prefix", &goredislib.Options{
		Addr: suite.server.Addr(),
	})
}

func (suite *DLMTestSuite) TearDownTest() {
	suite.server.Close()
}

func (suite *DLMTestSuite) TestLockUnlock() {
	name := "name"
	for i := 0; i < 10; i++ {
		require.NoError(suite.T(), suite.dlm.Lock(name, time.Second/2))
		_, err := suite.dlm.Unlock(name)
		require.NoError(suite.T(), err)
	}
}

func (suite *DLMTestSuite) TestLockContention() {
	name := "contended"
	require.NoError(suite.T(), suite.dlm.Lock(name, time.Minute))

	other := dlm.NewRedisDLM("prefix", &goredislib.Options{
		Addr: suite.server.Addr(),
	})
	require.Error(suite.T(), other.Lock(name, time.Minute))

	_, err := suite.dlm.Unlock(name)
	require.NoError(suite.T(), err)
	require.NoError(suite.T(), other.Lock(name, time.Minute))
}

func TestDLMTestSuite(t *testing.T) {
	suite.Run(t, new(DLMTestSuite))
}
