package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// maxLineSize caps one newline-delimited message on stdio.
const maxLineSize = 1024 * 1024

// ServeStdio reads newline-delimited JSON-RPC messages from r and writes
// responses to w until r is exhausted or ctx is done. Requests are handled
// concurrently; writes are serialized.
func (s *Server) ServeStdio(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, maxLineSize), maxLineSize)

	var (
		outputMu sync.Mutex
		wg       sync.WaitGroup
	)
	write := func(resp *Response) {
		data, err := json.Marshal(resp)
		if err != nil {
			s.log.Error("marshal response", zap.Error(err))
			return
		}
		outputMu.Lock()
		defer outputMu.Unlock()
		if _, err := w.Write(append(data, '\n')); err != nil {
			s.log.Error("write response", zap.Error(err))
		}
	}

	s.log.Info("serving on stdio")
	defer wg.Wait()

	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		req, errResp := Parse(line)
		if errResp != nil {
			s.log.Warn("unable to parse JSON-RPC request", zap.Int("code", errResp.Error.Code))
			write(errResp)
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			if resp := s.Handle(ctx, req); resp != nil {
				write(resp)
			}
		}()
	}

	if err := scanner.Err(); err != nil {
		return eris.Wrap(err, "mcp: read stdin")
	}
	return nil
}
