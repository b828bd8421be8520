package client

import (
	"bytes"
	"compress/zlib"
	"context"
	"crypto/tls"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/gdm85/go-rencode"
)

// The deluge client library models torrent options as a fixed struct with no
// file_priorities member and exposes no other way to change file priorities,
// so that one call is made directly against the daemon's RPC protocol
// (rencode body, zlib compressed, over TLS; v2 daemons frame every message
// with a version byte and a big-endian length).

const (
	delugeProtocolVersion = 1

	delugeRPCResponse int64 = 1
	delugeRPCError    int64 = 2

	delugeRPCTimeout = 30 * time.Second
)

type delugeRPC struct {
	host     string
	port     uint
	login    string
	password string
	v2       bool
}

// setFilePriorities issues core.set_torrent_options with a full
// file_priorities vector for the torrent, over a fresh authenticated session.
func (d *delugeRPC) setFilePriorities(ctx context.Context, hash string, priorities []int64) error {
	conn, err := d.dial(ctx)
	if err != nil {
		return fmt.Errorf("dial daemon: %w", err)
	}
	defer conn.Close()

	// daemon.login
	var loginKwargs rencode.Dictionary
	if d.v2 {
		loginKwargs.Add("client_version", "2.0.3")
	}

	if _, err := d.call(conn, 1, "daemon.login",
		rencode.NewList(d.login, d.password), loginKwargs); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	// core.set_torrent_options
	var prioList rencode.List
	for _, p := range priorities {
		prioList.Add(p)
	}

	var options rencode.Dictionary
	options.Add("file_priorities", prioList)

	var args rencode.List
	args.Add(rencode.NewList(hash), options)

	if _, err := d.call(conn, 2, "core.set_torrent_options", args, rencode.Dictionary{}); err != nil {
		return fmt.Errorf("set torrent options: %w", err)
	}

	return nil
}

func (d *delugeRPC) dial(ctx context.Context) (net.Conn, error) {
	dialer := new(net.Dialer)

	rawConn, err := dialer.DialContext(ctx, "tcp", fmt.Sprintf("%s:%d", d.host, d.port))
	if err != nil {
		return nil, err
	}

	// the daemon uses a self-signed certificate
	return tls.Client(rawConn, &tls.Config{
		ServerName:         d.host,
		InsecureSkipVerify: true,
	}), nil
}

func (d *delugeRPC) call(conn net.Conn, serial int64, method string,
	args rencode.List, kwargs rencode.Dictionary) (*rencode.List, error) {
	body, err := encodeDelugeRequest(serial, method, args, kwargs, d.v2)
	if err != nil {
		return nil, err
	}

	if err := conn.SetDeadline(time.Now().Add(delugeRPCTimeout)); err != nil {
		return nil, err
	}

	if _, err := conn.Write(body); err != nil {
		return nil, err
	}

	return readDelugeResponse(conn, serial, d.v2)
}

// encodeDelugeRequest frames a single RPC request: the request tuple is
// wrapped in an outer list, rencoded and zlib compressed; v2 prepends a
// 5-byte header carrying the protocol version and the body length.
func encodeDelugeRequest(serial int64, method string, args rencode.List,
	kwargs rencode.Dictionary, v2 bool) ([]byte, error) {
	var body bytes.Buffer
	zw := zlib.NewWriter(&body)

	payload := rencode.NewList(rencode.NewList(serial, method, args, kwargs))
	enc := rencode.NewEncoder(zw)
	if err := enc.Encode(payload); err != nil {
		return nil, err
	}

	if err := zw.Close(); err != nil {
		return nil, err
	}

	if !v2 {
		return body.Bytes(), nil
	}

	framed := make([]byte, 5, 5+body.Len())
	framed[0] = delugeProtocolVersion
	binary.BigEndian.PutUint32(framed[1:], uint32(body.Len()))

	return append(framed, body.Bytes()...), nil
}

// readDelugeResponse reads one framed response and returns its return values,
// converting RPC errors into Go errors. Out-of-order responses are rejected.
func readDelugeResponse(r io.Reader, serial int64, v2 bool) (*rencode.List, error) {
	var src io.Reader = r

	if v2 {
		var header [5]byte
		if _, err := io.ReadFull(r, header[:]); err != nil {
			return nil, err
		}

		if header[0] != delugeProtocolVersion {
			return nil, fmt.Errorf("unexpected protocol version: %d", header[0])
		}

		src = io.LimitReader(r, int64(binary.BigEndian.Uint32(header[1:])))
	}

	zr, err := zlib.NewReader(src)
	if err != nil {
		return nil, err
	}

	var resp rencode.List
	if err := rencode.NewDecoder(zr).Scan(&resp); err != nil {
		return nil, err
	}

	var messageType int64
	if err := resp.Scan(&messageType); err != nil {
		return nil, err
	}
	resp.Shift(1)

	var requestID int64
	if err := resp.Scan(&requestID); err != nil {
		return nil, err
	}
	resp.Shift(1)

	if requestID != serial {
		return nil, fmt.Errorf("response serial mismatch: got %d, expected %d", requestID, serial)
	}

	switch messageType {
	case delugeRPCResponse:
		return &resp, nil
	case delugeRPCError:
		return nil, parseDelugeError(&resp, v2)
	default:
		return nil, fmt.Errorf("unexpected message type: %d", messageType)
	}
}

func parseDelugeError(resp *rencode.List, v2 bool) error {
	var exceptionType, exceptionMsg string

	if v2 {
		var exceptionArgs rencode.List
		var errDict rencode.Dictionary
		var traceback string
		if err := resp.Scan(&exceptionType, &exceptionArgs, &errDict, &traceback); err != nil {
			return fmt.Errorf("rpc error (unparseable): %w", err)
		}
		if exceptionArgs.Length() > 0 {
			if v, ok := exceptionArgs.Values()[0].([]byte); ok {
				exceptionMsg = string(v)
			}
		}
	} else {
		var errList rencode.List
		if err := resp.Scan(&errList); err != nil {
			return fmt.Errorf("rpc error (unparseable): %w", err)
		}
		var traceback string
		if err := errList.Scan(&exceptionType, &exceptionMsg, &traceback); err != nil {
			return fmt.Errorf("rpc error (unparseable): %w", err)
		}
	}

	return fmt.Errorf("rpc error %s(%q)", exceptionType, exceptionMsg)
}
