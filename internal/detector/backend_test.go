package detector

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/amirhossein5/faceattend/internal/logging"
)

// fakeNet accepts only the listed targets and records the final choice.
type fakeNet struct {
	cuda    bool
	targets map[gocv.NetTargetType]bool
	backend gocv.NetBackendType
	target  gocv.NetTargetType
}

func (n *fakeNet) SetPreferableBackend(b gocv.NetBackendType) error {
	if b == gocv.NetBackendCUDA && !n.cuda {
		return errors.New("no CUDA")
	}
	n.backend = b
	return nil
}

func (n *fakeNet) SetPreferableTarget(t gocv.NetTargetType) error {
	if t != gocv.NetTargetCPU && !n.targets[t] {
		return errors.New("unsupported target")
	}
	n.target = t
	return nil
}

func TestSelectBackendPrefersFP16(t *testing.T) {
	net := &fakeNet{cuda: true, targets: map[gocv.NetTargetType]bool{gocv.NetTargetCUDAFP16: true, gocv.NetTargetCUDA: true}}
	target, err := selectBackend(net, "auto", logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, "cuda-fp16", target)
	assert.Equal(t, gocv.NetTargetCUDAFP16, net.target)
}

func TestSelectBackendAutoFallsBackToCPU(t *testing.T) {
	net := &fakeNet{}
	target, err := selectBackend(net, "auto", logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, "cpu", target)
	assert.Equal(t, gocv.NetBackendOpenCV, net.backend)
	assert.Equal(t, gocv.NetTargetCPU, net.target)
}

func TestSelectBackendCUDAFailsWhenUnavailable(t *testing.T) {
	_, err := selectBackend(&fakeNet{}, "cuda", logging.Discard())
	assert.ErrorIs(t, err, ErrCUDAUnavailable)

	_, err = selectBackend(&fakeNet{cuda: true}, "cuda", logging.Discard())
	assert.ErrorIs(t, err, ErrCUDAUnavailable)

	target, err := selectBackend(&fakeNet{cuda: true, targets: map[gocv.NetTargetType]bool{gocv.NetTargetCUDA: true}}, "cuda", logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, "cuda", target)
}

func TestSelectBackendCPUNeverTriesCUDA(t *testing.T) {
	net := &fakeNet{cuda: true, targets: map[gocv.NetTargetType]bool{gocv.NetTargetCUDAFP16: true}}
	target, err := selectBackend(net, "cpu", logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, "cpu", target)
	assert.Equal(t, gocv.NetBackendOpenCV, net.backend)
}
