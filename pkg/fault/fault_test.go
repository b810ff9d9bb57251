package fault_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dagcore/scheduler/pkg/fault"
)

func TestFromRecover(t *testing.T) {
	assert.Nil(t, fault.FromRecover(nil))

	err := fault.FromRecover("boom")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	wrapped := errors.New("wrapped")
	err = fault.FromRecover(wrapped)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "wrapped")
}

func TestConfigErrorAndLogicFault(t *testing.T) {
	cfgErr := fault.NewConfigError("pool", "numWorkers=%d out of range", 1024)
	assert.Contains(t, cfgErr.Error(), "pool")
	assert.Contains(t, cfgErr.Error(), "1024")

	var target *fault.ConfigError
	assert.ErrorAs(t, cfgErr, &target)

	logicErr := fault.NewLogicFault("fsm", "unrecognized action %d", 9)
	assert.Contains(t, logicErr.Error(), "unrecognized action 9")

	var lf *fault.LogicFault
	assert.ErrorAs(t, logicErr, &lf)
}

func TestChannelClosureSentinels(t *testing.T) {
	assert.ErrorIs(t, fault.ErrStopped, fault.ErrStopped)
	assert.ErrorIs(t, fault.ErrDrained, fault.ErrDrained)
	assert.NotEqual(t, fault.ErrStopped.Error(), fault.ErrDrained.Error())
}
