package shared

import (
	"context"
	"net/rpc"
)

// RPCClient is an implementation of Trainer that talks over RPC.
type RPCClient struct{ client *rpc.Client }

func (m *RPCClient) call(ctx context.Context, method string, args interface{}, reply interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	call := m.client.Go(method, args, reply, make(chan *rpc.Call, 1))
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-call.Done:
		return res.Error
	}
}

func (m *RPCClient) Train(ctx context.Context, req TrainRequest) error {
	var resp interface{}
	return m.call(ctx, "Plugin.Train", req, &resp)
}

func (m *RPCClient) Predict(ctx context.Context, req PredictRequest) ([][]int, error) {
	// resp may still be written by the rpc client after a cancelled call.
	var resp [][]int
	if err := m.call(ctx, "Plugin.Predict", req, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (m *RPCClient) Save(ctx context.Context, dir string) error {
	var resp interface{}
	return m.call(ctx, "Plugin.Save", dir, &resp)
}

// Here is the RPC server that RPCClient talks to, conforming to
// the requirements of net/rpc
type RPCServer struct {
	// This is the real implementation
	Impl Trainer
}

func (m *RPCServer) Train(req TrainRequest, resp *interface{}) error {
	return m.Impl.Train(context.Background(), req)
}

func (m *RPCServer) Predict(req PredictRequest, resp *[][]int) error {
	v, err := m.Impl.Predict(context.Background(), req)
	*resp = v
	return err
}

func (m *RPCServer) Save(dir string, resp *interface{}) error {
	return m.Impl.Save(context.Background(), dir)
}
