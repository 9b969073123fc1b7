// Package consensus wraps the external consensus-node SDK collaborator
// named in spec.md §6 (EthereumTransaction, FileCreateTransaction,
// FileAppendTransaction, FileDeleteTransaction, FileInfoQuery,
// TransactionRecordQuery) and the supervisor that owns its long-lived
// client handle (spec.md §4.2).
package consensus

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

// TransactionResponse is the result of submitting a signed transaction to
// the consensus node (spec.md §4.1 step 8).
type TransactionResponse struct {
	TransactionID string
	NodeID        string
}

// FileHandle identifies a file staged on the consensus node (spec.md §4.2
// create_file).
type FileHandle struct {
	FileID string
}

// FileInfo is the result of an on-node FileInfoQuery (spec.md §4.2 step 3).
type FileInfo struct {
	FileID string
	Size   int64
}

// TransactionRecord carries the fee/usage data the supervisor's fee
// accounting reads after every commit (spec.md §4.2).
type TransactionRecord struct {
	TransactionID     string
	GasUsed           int64
	TransactionFeeTiny int64
	Status            string
}

// SDKClient is the consensus-node SDK surface this gateway depends on. A
// single long-lived handle is owned and rotated by Supervisor.
type SDKClient interface {
	SubmitEthereumTransaction(ctx context.Context, signedBytes []byte, fileID string) (TransactionResponse, error)
	CreateFile(ctx context.Context, contents []byte) (FileHandle, error)
	AppendFile(ctx context.Context, fileID string, chunk []byte) error
	DeleteFile(ctx context.Context, fileID string) error
	GetFileInfo(ctx context.Context, fileID string) (FileInfo, error)
	GetTransactionRecord(ctx context.Context, transactionID string) (TransactionRecord, error)
	// Close releases the underlying connection; called by the supervisor
	// when rebuilding the handle on reinit (spec.md §4.2 step 1).
	Close() error
}

// jsonCodec lets this gateway issue generic unary RPCs against the
// consensus-node gRPC endpoint without vendoring its .proto-generated
// stubs — request/response bodies for this SDK surface are plain Go
// structs marshaled as JSON over the wire, the same technique
// grpc-ecosystem/grpc-gateway (a direct teacher dependency) uses to bridge
// REST/JSON onto gRPC transport.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// grpcSDKClient implements SDKClient over a gRPC connection to the
// consensus node, using the JSON codec registered above.
type grpcSDKClient struct {
	conn *grpc.ClientConn
}

// NewGRPCClient dials the consensus node at target and returns an SDKClient.
func NewGRPCClient(ctx context.Context, target string, opts ...grpc.DialOption) (SDKClient, error) {
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, err
	}
	return &grpcSDKClient{conn: conn}, nil
}

func (c *grpcSDKClient) invoke(ctx context.Context, method string, req, reply interface{}) error {
	return c.conn.Invoke(ctx, method, req, reply, grpc.CallContentSubtype("json"))
}

func (c *grpcSDKClient) SubmitEthereumTransaction(ctx context.Context, signedBytes []byte, fileID string) (TransactionResponse, error) {
	req := struct {
		SignedBytes []byte `json:"signedBytes"`
		FileID      string `json:"fileId,omitempty"`
	}{signedBytes, fileID}
	var resp TransactionResponse
	err := c.invoke(ctx, "/consensus.Gateway/SubmitEthereumTransaction", req, &resp)
	return resp, err
}

func (c *grpcSDKClient) CreateFile(ctx context.Context, contents []byte) (FileHandle, error) {
	req := struct {
		Contents []byte `json:"contents"`
	}{contents}
	var resp FileHandle
	err := c.invoke(ctx, "/consensus.Gateway/FileCreate", req, &resp)
	return resp, err
}

func (c *grpcSDKClient) AppendFile(ctx context.Context, fileID string, chunk []byte) error {
	req := struct {
		FileID string `json:"fileId"`
		Chunk  []byte `json:"chunk"`
	}{fileID, chunk}
	var resp struct{}
	return c.invoke(ctx, "/consensus.Gateway/FileAppend", req, &resp)
}

func (c *grpcSDKClient) DeleteFile(ctx context.Context, fileID string) error {
	req := struct {
		FileID string `json:"fileId"`
	}{fileID}
	var resp struct{}
	return c.invoke(ctx, "/consensus.Gateway/FileDelete", req, &resp)
}

func (c *grpcSDKClient) GetFileInfo(ctx context.Context, fileID string) (FileInfo, error) {
	req := struct {
		FileID string `json:"fileId"`
	}{fileID}
	var resp FileInfo
	err := c.invoke(ctx, "/consensus.Gateway/FileInfo", req, &resp)
	return resp, err
}

func (c *grpcSDKClient) GetTransactionRecord(ctx context.Context, transactionID string) (TransactionRecord, error) {
	req := struct {
		TransactionID string `json:"transactionId"`
	}{transactionID}
	var resp TransactionRecord
	err := c.invoke(ctx, "/consensus.Gateway/TransactionRecord", req, &resp)
	return resp, err
}

func (c *grpcSDKClient) Close() error {
	return c.conn.Close()
}
