package consensus_test

import (
	"context"
	"testing"
	"time"

	"cosmossdk.io/log"
	"github.com/stretchr/testify/require"

	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/consensus"
)

type fakeSDKClient struct {
	id     string
	closed bool
}

func (f *fakeSDKClient) SubmitEthereumTransaction(ctx context.Context, signedBytes []byte, fileID string) (consensus.TransactionResponse, error) {
	return consensus.TransactionResponse{TransactionID: f.id}, nil
}
func (f *fakeSDKClient) CreateFile(ctx context.Context, contents []byte) (consensus.FileHandle, error) {
	return consensus.FileHandle{FileID: "0.0.1"}, nil
}
func (f *fakeSDKClient) AppendFile(ctx context.Context, fileID string, chunk []byte) error { return nil }
func (f *fakeSDKClient) DeleteFile(ctx context.Context, fileID string) error                { return nil }
func (f *fakeSDKClient) GetFileInfo(ctx context.Context, fileID string) (consensus.FileInfo, error) {
	return consensus.FileInfo{FileID: fileID, Size: 10}, nil
}
func (f *fakeSDKClient) GetTransactionRecord(ctx context.Context, transactionID string) (consensus.TransactionRecord, error) {
	return consensus.TransactionRecord{}, nil
}
func (f *fakeSDKClient) Close() error { f.closed = true; return nil }

// TestScenarioD_ClientReinitByTransactionCount reproduces spec.md §8
// Scenario D: with HAPI_CLIENT_TRANSACTION_RESET=2, three successive
// GetClient calls rebuild the handle exactly once, on the third call.
func TestScenarioD_ClientReinitByTransactionCount(t *testing.T) {
	ids := []string{"instance-A", "instance-B", "instance-C"}
	next := 0
	factory := func(ctx context.Context) (consensus.SDKClient, error) {
		c := &fakeSDKClient{id: ids[next]}
		next++
		return c, nil
	}

	sup := consensus.NewSupervisor(log.NewNopLogger(), factory, consensus.Thresholds{
		TransactionCount: 2,
		ResetDuration:    time.Hour,
	})

	c1, err := sup.GetClient(context.Background())
	require.NoError(t, err)
	require.Equal(t, "instance-A", c1.(*fakeSDKClient).id)

	c2, err := sup.GetClient(context.Background())
	require.NoError(t, err)
	require.Equal(t, "instance-A", c2.(*fakeSDKClient).id)

	c3, err := sup.GetClient(context.Background())
	require.NoError(t, err)
	require.Equal(t, "instance-B", c3.(*fakeSDKClient).id)
}

func TestReinitDisabledWhenAllThresholdsZero(t *testing.T) {
	calls := 0
	factory := func(ctx context.Context) (consensus.SDKClient, error) {
		calls++
		return &fakeSDKClient{id: "only"}, nil
	}
	sup := consensus.NewSupervisor(log.NewNopLogger(), factory, consensus.Thresholds{})

	for i := 0; i < 10; i++ {
		_, err := sup.GetClient(context.Background())
		require.NoError(t, err)
	}
	require.Equal(t, 1, calls)
}

func TestReportErrorTriggersReinitOnlyForConfiguredCodes(t *testing.T) {
	calls := 0
	factory := func(ctx context.Context) (consensus.SDKClient, error) {
		calls++
		return &fakeSDKClient{id: "x"}, nil
	}
	sup := consensus.NewSupervisor(log.NewNopLogger(), factory, consensus.Thresholds{
		TransactionCount: 1000,
		ResetDuration:    time.Hour,
		ErrorCodes:       map[string]bool{"BUSY": true},
	})

	_, err := sup.GetClient(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, calls)

	sup.ReportError("INVALID_SIGNATURE")
	_, err = sup.GetClient(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, calls) // not a trigger code, no rebuild

	sup.ReportError("BUSY")
	_, err = sup.GetClient(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, calls)
}

func TestUploaderStagesPayloadAcrossChunks(t *testing.T) {
	factory := func(ctx context.Context) (consensus.SDKClient, error) {
		return &fakeSDKClient{id: "x"}, nil
	}
	sup := consensus.NewSupervisor(log.NewNopLogger(), factory, consensus.Thresholds{})

	var feeCalls int
	uploader := consensus.NewUploader(log.NewNopLogger(), sup, 4, 10, func(ctx context.Context, sender string) {
		feeCalls++
	})

	// fakeSDKClient.GetFileInfo always reports size 10, matching our
	// 10-byte payload exactly.
	handle, err := uploader.CreateFile(context.Background(), []byte("0123456789"), "0xSender")
	require.NoError(t, err)
	require.Equal(t, "0.0.1", handle.FileID)
	require.Greater(t, feeCalls, 0)
}
