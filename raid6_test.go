package raid6_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	raid6 "github.com/keyplay/RAID6-implementation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestArray builds a 4+2 array with 16-byte chunks over GF(2^8), the
// reference geometry of the end-to-end scenarios.
func newTestArray(t *testing.T, mutate func(*raid6.Config)) *raid6.Array {
	t.Helper()
	conf := raid6.Config{
		Root:      t.TempDir(),
		DataDisks: 4,
		ChunkSize: 16,
		Workers:   2,
		Logger:    quietLogger(),
	}
	if mutate != nil {
		mutate(&conf)
	}
	a, err := raid6.New(conf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	require.NoError(t, a.Init(context.Background()))
	return a
}

func writeSource(t *testing.T, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "source.bin")
	require.NoError(t, os.WriteFile(path, content, 0o600))
	return path
}

func sampleBytes(n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(i*7 + 3)
	}
	return out
}

func TestWriteRead_AllDisksPresent(t *testing.T) {
	a := newTestArray(t, nil)
	ctx := context.Background()
	original := sampleBytes(40)

	require.NoError(t, a.WriteFile(ctx, writeSource(t, original)))

	got, err := a.ReadFile(ctx)
	require.NoError(t, err)
	assert.Equal(t, original, got)
}

func TestRead_OneDiskAbsent(t *testing.T) {
	a := newTestArray(t, nil)
	ctx := context.Background()
	original := sampleBytes(40)

	require.NoError(t, a.WriteFile(ctx, writeSource(t, original)))
	require.NoError(t, a.FailDisk(1))

	got, err := a.ReadFile(ctx)
	require.NoError(t, err)
	assert.Equal(t, original, got)
}

func TestRead_DataAndParityDiskAbsent(t *testing.T) {
	a := newTestArray(t, nil)
	ctx := context.Background()
	original := sampleBytes(40)

	require.NoError(t, a.WriteFile(ctx, writeSource(t, original)))
	require.NoError(t, a.FailDisk(1))
	require.NoError(t, a.FailDisk(5))

	got, err := a.ReadFile(ctx)
	require.NoError(t, err)
	assert.Equal(t, original, got)
}

func TestRead_ThreeDisksAbsentFails(t *testing.T) {
	a := newTestArray(t, nil)
	ctx := context.Background()

	require.NoError(t, a.WriteFile(ctx, writeSource(t, sampleBytes(40))))
	for _, d := range []int{0, 2, 4} {
		require.NoError(t, a.FailDisk(d))
	}

	_, err := a.ReadFile(ctx)
	require.ErrorIs(t, err, raid6.ErrUnrecoverableFile)

	var unrec *raid6.UnrecoverableError
	require.ErrorAs(t, err, &unrec)
	assert.Equal(t, []int{0}, unrec.Stripes)
}

func TestRepairCorruption(t *testing.T) {
	a := newTestArray(t, nil)
	ctx := context.Background()
	original := sampleBytes(40)

	require.NoError(t, a.WriteFile(ctx, writeSource(t, original)))
	require.NoError(t, a.CorruptChunk(2, 0))

	report, err := a.RepairCorruption(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.RepairedChunks)
	assert.Equal(t, []int{0}, report.RepairedStripes)
	assert.Empty(t, report.UnrecoverableStripes)

	got, err := a.ReadFile(ctx)
	require.NoError(t, err)
	assert.Equal(t, original, got)

	// Second scan finds nothing left to do.
	report, err = a.RepairCorruption(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.RepairedChunks)
}

func TestRepairCorruption_TwoChunksOneStripe(t *testing.T) {
	a := newTestArray(t, nil)
	ctx := context.Background()
	original := sampleBytes(200) // 4 stripes

	require.NoError(t, a.WriteFile(ctx, writeSource(t, original)))
	require.NoError(t, a.CorruptChunk(0, 2))
	require.NoError(t, a.CorruptChunk(5, 2))

	report, err := a.RepairCorruption(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.RepairedChunks)
	assert.Equal(t, []int{2}, report.RepairedStripes)

	got, err := a.ReadFile(ctx)
	require.NoError(t, err)
	assert.Equal(t, original, got)
}

func TestRepairCorruption_ReportsUnrecoverable(t *testing.T) {
	a := newTestArray(t, nil)
	ctx := context.Background()

	require.NoError(t, a.WriteFile(ctx, writeSource(t, sampleBytes(40))))
	for _, d := range []int{0, 1, 2} {
		require.NoError(t, a.CorruptChunk(d, 0))
	}

	report, err := a.RepairCorruption(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, report.UnrecoverableStripes)
	assert.Zero(t, report.RepairedChunks)
}

func TestRebuildDisk(t *testing.T) {
	a := newTestArray(t, nil)
	ctx := context.Background()
	original := sampleBytes(200) // 4 stripes

	require.NoError(t, a.WriteFile(ctx, writeSource(t, original)))
	require.NoError(t, a.FailDisk(3))
	require.NoError(t, a.RebuildDisk(ctx, 3))

	// The rebuilt disk must carry valid chunks again: fail two other
	// disks and the stripe is still recoverable only if disk 3 is good.
	require.NoError(t, a.FailDisk(0))
	require.NoError(t, a.FailDisk(4))

	got, err := a.ReadFile(ctx)
	require.NoError(t, err)
	assert.Equal(t, original, got)
}

func TestRebuildDisk_ParityDisk(t *testing.T) {
	a := newTestArray(t, nil)
	ctx := context.Background()
	original := sampleBytes(100)

	require.NoError(t, a.WriteFile(ctx, writeSource(t, original)))
	require.NoError(t, a.FailDisk(5))
	require.NoError(t, a.RebuildDisk(ctx, 5))

	require.NoError(t, a.FailDisk(1))
	require.NoError(t, a.FailDisk(2))

	got, err := a.ReadFile(ctx)
	require.NoError(t, err)
	assert.Equal(t, original, got)
}

func TestUpdateChunk(t *testing.T) {
	a := newTestArray(t, nil)
	ctx := context.Background()
	original := sampleBytes(64) // exactly one stripe, no padding

	require.NoError(t, a.WriteFile(ctx, writeSource(t, original)))

	replacement := make([]byte, 16)
	for i := range replacement {
		replacement[i] = 0xEE
	}
	require.NoError(t, a.UpdateChunk(ctx, 0, 1, replacement))

	want := append([]byte(nil), original...)
	copy(want[16:32], replacement)

	got, err := a.ReadFile(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// Parity was recomputed: the update survives a two-disk failure.
	require.NoError(t, a.FailDisk(1))
	require.NoError(t, a.FailDisk(2))
	got, err = a.ReadFile(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestUpdateChunk_Validation(t *testing.T) {
	a := newTestArray(t, nil)
	ctx := context.Background()
	require.NoError(t, a.WriteFile(ctx, writeSource(t, sampleBytes(40))))

	err := a.UpdateChunk(ctx, 0, 9, make([]byte, 16))
	assert.Error(t, err)
	err = a.UpdateChunk(ctx, 0, 1, make([]byte, 7))
	assert.Error(t, err)
	err = a.UpdateChunk(ctx, 9, 1, make([]byte, 16))
	assert.Error(t, err)
}

func TestUpdateRange_CrossesStripes(t *testing.T) {
	a := newTestArray(t, nil)
	ctx := context.Background()
	original := sampleBytes(200) // 4 stripes of 64, padded

	require.NoError(t, a.WriteFile(ctx, writeSource(t, original)))

	patch := make([]byte, 90)
	for i := range patch {
		patch[i] = byte(200 - i)
	}
	require.NoError(t, a.UpdateRange(ctx, 50, patch))

	want := append([]byte(nil), original...)
	copy(want[50:], patch)

	got, err := a.ReadFile(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// Updated stripes must still tolerate two failures.
	require.NoError(t, a.FailDisk(0))
	require.NoError(t, a.FailDisk(5))
	got, err = a.ReadFile(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestUpdateRange_OutOfBounds(t *testing.T) {
	a := newTestArray(t, nil)
	ctx := context.Background()
	require.NoError(t, a.WriteFile(ctx, writeSource(t, sampleBytes(40))))

	err := a.UpdateRange(ctx, 39, []byte{1, 2, 3})
	assert.Error(t, err)
}

func TestEmptyFile(t *testing.T) {
	a := newTestArray(t, nil)
	ctx := context.Background()

	require.NoError(t, a.WriteFile(ctx, writeSource(t, nil)))
	got, err := a.ReadFile(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestBadgerBackend(t *testing.T) {
	a := newTestArray(t, func(c *raid6.Config) { c.Store = "badger" })
	ctx := context.Background()
	original := sampleBytes(200)

	require.NoError(t, a.WriteFile(ctx, writeSource(t, original)))
	require.NoError(t, a.FailDisk(2))

	got, err := a.ReadFile(ctx)
	require.NoError(t, err)
	assert.Equal(t, original, got)

	require.NoError(t, a.RebuildDisk(ctx, 2))
	require.NoError(t, a.FailDisk(0))
	require.NoError(t, a.FailDisk(1))
	got, err = a.ReadFile(ctx)
	require.NoError(t, err)
	assert.Equal(t, original, got)
}

func TestCompressedArray(t *testing.T) {
	for _, alg := range []string{"zstd", "xz"} {
		alg := alg
		t.Run(alg, func(t *testing.T) {
			a := newTestArray(t, func(c *raid6.Config) { c.Compression = alg })
			ctx := context.Background()
			original := sampleBytes(500)

			require.NoError(t, a.WriteFile(ctx, writeSource(t, original)))
			require.NoError(t, a.FailDisk(1))

			got, err := a.ReadFile(ctx)
			require.NoError(t, err)
			assert.Equal(t, original, got)

			// Range updates are refused on compressed arrays.
			err = a.UpdateRange(ctx, 0, []byte{1})
			assert.Error(t, err)
		})
	}
}

func TestReadFileTo(t *testing.T) {
	a := newTestArray(t, nil)
	ctx := context.Background()
	original := sampleBytes(77)

	require.NoError(t, a.WriteFile(ctx, writeSource(t, original)))

	out := filepath.Join(t.TempDir(), "out.bin")
	require.NoError(t, a.ReadFileTo(ctx, out))

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, original, got)
}

func TestStatus(t *testing.T) {
	a := newTestArray(t, nil)
	ctx := context.Background()

	st, err := a.Status(ctx)
	require.NoError(t, err)
	require.Len(t, st.Disks, 6)
	assert.Nil(t, st.Manifest)
	for _, d := range st.Disks {
		assert.True(t, d.Present, "disk %d", d.Index)
	}

	require.NoError(t, a.WriteFile(ctx, writeSource(t, sampleBytes(40))))
	require.NoError(t, a.FailDisk(4))

	st, err = a.Status(ctx)
	require.NoError(t, err)
	require.NotNil(t, st.Manifest)
	assert.Equal(t, int64(40), st.Manifest.FileSize)
	assert.False(t, st.Disks[4].Present)
}

func TestNew_InvalidConfiguration(t *testing.T) {
	_, err := raid6.New(raid6.Config{Root: t.TempDir(), DataDisks: 1, Logger: quietLogger()})
	assert.Error(t, err)

	// GF(2^8) holds at most 255 coefficient rows.
	_, err = raid6.New(raid6.Config{Root: t.TempDir(), DataDisks: 260, Logger: quietLogger()})
	assert.Error(t, err)

	_, err = raid6.New(raid6.Config{Root: t.TempDir(), DataDisks: 4, FieldDegree: 4, ChunkSize: 16, Logger: quietLogger()})
	assert.Error(t, err)
}
