package consensus

import (
	"context"

	"github.com/pkg/errors"

	"cosmossdk.io/log"
)

// DefaultChunkSize is the chunk size NewUploader falls back to when given a
// non-positive one; config.Load's own FILE_APPEND_CHUNK_SIZE default (4096)
// is a separate value.
const DefaultChunkSize = 2048

// DefaultMaxChunks is FILE_APPEND_MAX_CHUNKS's default (spec.md §6).
const DefaultMaxChunks = 20

// Uploader stages large payloads as a file on the consensus node (spec.md
// §4.1 step 6, §4.2 create_file).
type Uploader struct {
	logger     log.Logger
	supervisor *Supervisor
	chunkSize  int
	maxChunks  int
	onChunkFee func(ctx context.Context, sender string) // credits the limiter per successful append
}

// NewUploader constructs an Uploader. onChunkFee, when non-nil, is invoked
// once per successfully-appended chunk so the HBAR limiter is credited only
// for appends that actually landed (spec.md §4.2 step 2's partial-success
// rule).
func NewUploader(logger log.Logger, supervisor *Supervisor, chunkSize, maxChunks int, onChunkFee func(ctx context.Context, sender string)) *Uploader {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if maxChunks <= 0 {
		maxChunks = DefaultMaxChunks
	}
	return &Uploader{
		logger:     logger.With(log.ModuleKey, "fileUploader"),
		supervisor: supervisor,
		chunkSize:  chunkSize,
		maxChunks:  maxChunks,
		onChunkFee: onChunkFee,
	}
}

// CreateFile implements spec.md §4.2's create_file: FileCreate with the
// first chunk, FileAppend for the remainder (bounded by maxChunks), then a
// FileInfo check. Per spec.md §9's resolution of the file-staging Open
// Question, the observed size is compared against the expected length and
// the handle is refused — rather than trusted — when they don't match.
func (u *Uploader) CreateFile(ctx context.Context, payload []byte, sender string) (FileHandle, error) {
	client, err := u.supervisor.GetClient(ctx)
	if err != nil {
		return FileHandle{}, errors.Wrap(err, "acquiring consensus client for file staging")
	}

	first := payload
	rest := []byte(nil)
	if len(payload) > u.chunkSize {
		first = payload[:u.chunkSize]
		rest = payload[u.chunkSize:]
	}

	handle, err := client.CreateFile(ctx, first)
	if err != nil {
		return FileHandle{}, errors.Wrap(err, "FileCreate failed")
	}

	appended := len(first)
	chunksUsed := 1
	for len(rest) > 0 {
		if chunksUsed >= u.maxChunks {
			u.logger.Error("exceeded max append chunks, aborting remaining staging", "fileId", handle.FileID, "maxChunks", u.maxChunks)
			break
		}
		n := u.chunkSize
		if n > len(rest) {
			n = len(rest)
		}
		chunk := rest[:n]
		if err := client.AppendFile(ctx, handle.FileID, chunk); err != nil {
			// Partial success: stop appending further chunks, but keep what
			// succeeded so the size check below can decide whether to fail.
			u.logger.Error("FileAppend chunk failed, aborting remaining chunks", "fileId", handle.FileID, "error", err)
			break
		}
		if u.onChunkFee != nil {
			u.onChunkFee(ctx, sender)
		}
		appended += n
		rest = rest[n:]
		chunksUsed++
	}

	info, err := client.GetFileInfo(ctx, handle.FileID)
	if err != nil {
		return FileHandle{}, errors.Wrap(err, "FileInfo query failed")
	}
	if info.Size == 0 {
		return FileHandle{}, errors.New("Created file is empty.")
	}
	if info.Size != int64(appended) {
		return FileHandle{}, errors.Errorf("created file size mismatch: expected %d bytes, consensus node reports %d", appended, info.Size)
	}

	return handle, nil
}
