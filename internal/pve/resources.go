package pve

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Clone submits a clone of sourceID on node. The request is sent to the
// kind-specific clone endpoint exactly as given; callers apply any
// kind-specific payload rules.
func (c *Client) Clone(ctx context.Context, s *Session, node string, kind Kind, sourceID int, req CloneRequest) (UPID, error) {
	path := fmt.Sprintf("/nodes/%s/%s/%d/clone", url.PathEscape(node), kind, sourceID)
	return c.submit(ctx, s, "clone", http.MethodPost, path, req)
}

// Delete submits the removal of guest id on node.
func (c *Client) Delete(ctx context.Context, s *Session, node string, kind Kind, id int) (UPID, error) {
	path := fmt.Sprintf("/nodes/%s/%s/%d", url.PathEscape(node), kind, id)
	return c.submit(ctx, s, "delete", http.MethodDelete, path, nil)
}

// SetStatus submits a power-state change for guest id on node.
func (c *Client) SetStatus(ctx context.Context, s *Session, node string, kind Kind, id int, action StatusAction) (UPID, error) {
	path := fmt.Sprintf("/nodes/%s/%s/%d/status/%s", url.PathEscape(node), kind, id, action)
	return c.submit(ctx, s, "status", http.MethodPost, path, nil)
}

// ProbeContainer reads the container endpoint for id and returns the raw
// reply body. The status code is deliberately ignored: the API answers
// {"data":null} for ids that are not containers, and the shape of the body
// is what callers classify.
func (c *Client) ProbeContainer(ctx context.Context, s *Session, node string, id int) ([]byte, error) {
	path := fmt.Sprintf("/nodes/%s/%s/%d", url.PathEscape(node), KindContainer, id)
	resp, err := c.do(ctx, s, "probe", http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return resp.body, nil
}

// TaskStatus looks up the status of task upid on node.
//
// A reply without data, or with a non-2xx status, is returned as an error;
// a running task decodes with an empty ExitStatus.
func (c *Client) TaskStatus(ctx context.Context, s *Session, node string, upid UPID) (*TaskStatus, error) {
	path := fmt.Sprintf("/nodes/%s/tasks/%s/status", url.PathEscape(node), url.PathEscape(string(upid)))
	resp, err := c.do(ctx, s, "task", http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if err := resp.checkStatus(http.MethodGet); err != nil {
		return nil, err
	}

	var status TaskStatus
	if err := resp.decodeData(&status); err != nil {
		return nil, err
	}
	return &status, nil
}

// submit sends a mutating request and decodes the UPID it returns.
func (c *Client) submit(ctx context.Context, s *Session, route, method, path string, payload any) (UPID, error) {
	resp, err := c.do(ctx, s, route, method, path, payload)
	if err != nil {
		return "", err
	}
	if err := resp.checkStatus(method); err != nil {
		return "", err
	}

	var upid string
	if err := resp.decodeData(&upid); err != nil {
		return "", err
	}
	if upid == "" {
		return "", &DecodeError{Path: path, Body: string(resp.body), Err: fmt.Errorf("empty task id")}
	}
	return UPID(upid), nil
}
