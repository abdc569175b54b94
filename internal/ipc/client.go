package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func call[Req, Resp any](c *Client, method string, req Req) (*Resp, error) {
	var resp Resp
	if err := c.client.Call(ServiceName+"."+method, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Start requests the daemon to start serving.
func (c *Client) Start() (*StartResponse, error) {
	return call[StartRequest, StartResponse](c, "Start", StartRequest{})
}

// Stop requests the daemon to stop.
func (c *Client) Stop() (*StopResponse, error) {
	return call[StopRequest, StopResponse](c, "Stop", StopRequest{})
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	return call[StatusRequest, StatusResponse](c, "Status", StatusRequest{})
}

// StartJob submits a transcode. Rejections come back in the response, not as err.
func (c *Client) StartJob(req JobStartRequest) (*JobStartResponse, error) {
	return call[JobStartRequest, JobStartResponse](c, "JobStart", req)
}

// CancelJob cancels a job by request id.
func (c *Client) CancelJob(requestID string) (*JobCancelResponse, error) {
	return call[JobCancelRequest, JobCancelResponse](c, "JobCancel", JobCancelRequest{RequestID: requestID})
}

// ListJobs returns live jobs and optionally recently finished ones.
func (c *Client) ListJobs(recent bool) (*JobListResponse, error) {
	return call[JobListRequest, JobListResponse](c, "JobList", JobListRequest{Recent: recent})
}

// DescribeJob returns one job.
func (c *Client) DescribeJob(requestID string) (*JobDescribeResponse, error) {
	return call[JobDescribeRequest, JobDescribeResponse](c, "JobDescribe", JobDescribeRequest{RequestID: requestID})
}

// Events fetches lifecycle events after a cursor.
func (c *Client) Events(req EventsRequest) (*EventsResponse, error) {
	return call[EventsRequest, EventsResponse](c, "Events", req)
}

// LogTail returns log lines from the daemon.
func (c *Client) LogTail(req LogTailRequest) (*LogTailResponse, error) {
	return call[LogTailRequest, LogTailResponse](c, "LogTail", req)
}

// TestNotification sends a test notification.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	return call[TestNotificationRequest, TestNotificationResponse](c, "TestNotification", TestNotificationRequest{})
}
