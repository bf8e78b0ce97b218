package output

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "programs")
	sink := &DirSink{Dir: dir}

	err := sink.Store(context.Background(), "model_0.c", []byte("int main(void) { return 0; }\n"))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "model_0.c"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "int main")
}

func TestDirSinkOverwrite(t *testing.T) {
	sink := &DirSink{Dir: t.TempDir()}
	ctx := context.Background()

	require.NoError(t, sink.Store(ctx, "p.c", []byte("first")))
	require.NoError(t, sink.Store(ctx, "p.c", []byte("second")))

	data, err := os.ReadFile(filepath.Join(sink.Dir, "p.c"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}
