// Package pve provides a client for the Proxmox VE REST API.
//
// This package wraps net/http to provide:
//   - Authentication (ticket login producing an immutable Session)
//   - Kind-specific lifecycle requests (clone, delete, start, stop)
//   - The container probe used to tell QEMU guests from LXC containers
//   - Task status lookups for asynchronous jobs (UPIDs)
//
// Connection Management:
//
// A Client is safe for concurrent use. A Session is obtained once per
// invocation and shared read-only by every request in a batch:
//
//	client, err := pve.New("https://pve.example.com:8006", pve.WithInsecureTLS(true))
//	if err != nil {
//	    return err
//	}
//
//	session, err := client.Login(ctx, "root@pam", password)
//	if err != nil {
//	    return err
//	}
//
//	upid, err := client.Delete(ctx, session, "pve1", pve.KindVirtualMachine, 101)
//
// Errors:
//
// Connection and TLS failures are returned as *TransportError. Replies with a
// non-2xx status are returned as *StatusError, and replies whose body does
// not have the expected shape as *DecodeError. Callers decide which of these
// are retryable.
//
// Consumer-Side Interfaces:
//
// This package does not define interfaces. Consumers (internal/vm) define the
// subset of *Client they need so they can be tested with mocks.
package pve
