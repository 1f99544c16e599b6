package davis

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/chrissnell/weatherlink/internal/log"
	"github.com/chrissnell/weatherlink/pkg/crc16"
	"go.uber.org/zap"
)

var loopHeader = []byte("LOO")

// Poller requests LOOP2 packets from a connected console.
type Poller struct {
	comm   *Communicator
	logger *zap.SugaredLogger
	now    func() time.Time
}

func NewPoller(c *Communicator, logger *zap.SugaredLogger) *Poller {
	return &Poller{
		comm:   c,
		logger: log.OrNop(logger),
		now:    time.Now,
	}
}

// Poll asks the console for n LOOP2 packets and calls fn for each one that
// decodes. Packets that fail their checksum or framing are logged and
// skipped. If ctx is cancelled between packets the console is told to stop
// sending and ctx.Err() is returned.
func (p *Poller) Poll(ctx context.Context, n int, fn func(LoopRecord) error) error {
	p.logger.Debugf("requesting %d LOOP2 packets from Davis station", n)

	if err := p.comm.SendInstruction([]byte(fmt.Sprintf("LPS 2 %d\n", n)), true); err != nil {
		return fmt.Errorf("error sending LPS: %w", err)
	}

	return p.comm.WithHandle(func(h io.Reader) error {
		scanner := bufio.NewScanner(h)
		scanner.Split(scanPackets)

		for i := 0; i < n; i++ {
			select {
			case <-ctx.Done():
				p.cancel()
				return ctx.Err()
			default:
			}

			if !scanner.Scan() {
				if err := scanner.Err(); err != nil {
					return fmt.Errorf("error reading LOOP2 packet %d of %d: %w", i+1, n, err)
				}
				return fmt.Errorf("error reading LOOP2 packet %d of %d: %w", i+1, n, io.ErrUnexpectedEOF)
			}

			record, err := DecodeLoop2(scanner.Bytes(), p.now())
			if err != nil {
				p.logger.Warnf("skipping LOOP2 packet %d of %d: %v", i+1, n, err)
				continue
			}
			if err := fn(record); err != nil {
				return err
			}
		}
		return nil
	})
}

// Collect polls n packets and returns the ones that decoded.
func (p *Poller) Collect(ctx context.Context, n int) ([]LoopRecord, error) {
	records := make([]LoopRecord, 0, n)
	err := p.Poll(ctx, n, func(r LoopRecord) error {
		records = append(records, r)
		return nil
	})
	return records, err
}

// cancel stops a running LPS. Any character sent to the console ends it.
func (p *Poller) cancel() {
	if err := p.comm.SendInstruction([]byte("\r"), false); err != nil {
		p.logger.Debugf("could not cancel LOOP2 polling: %v", err)
	}
}

// scanPackets is a bufio.SplitFunc yielding LOOP packets. Bytes ahead of a
// "LOO" header are dropped. A frame that fails its checksum and runs into
// the next packet's header is cut short at that header, so one damaged
// packet yields exactly one bad token.
func scanPackets(data []byte, atEOF bool) (advance int, token []byte, err error) {
	i := bytes.Index(data, loopHeader)
	if i < 0 {
		if atEOF {
			return len(data), nil, nil
		}
		// a header may be split across reads
		if len(data) > len(loopHeader)-1 {
			return len(data) - (len(loopHeader) - 1), nil, nil
		}
		return 0, nil, nil
	}

	if len(data)-i >= LoopPacketLength {
		frame := data[i : i+LoopPacketLength]
		if !crc16.Valid(frame) {
			if k := nextHeader(frame); k > 0 {
				return i + k, frame[:k], nil
			}
		}
		return i + LoopPacketLength, frame, nil
	}
	if atEOF {
		return 0, nil, errors.New("truncated LOOP packet")
	}
	return i, nil, nil
}

// nextHeader returns the offset of the first "LOO" header inside frame after
// its own, counting a partial header at the very end. It returns 0 if there
// is none.
func nextHeader(frame []byte) int {
	for k := 1; k < len(frame); k++ {
		rest := frame[k:]
		if len(rest) > len(loopHeader) {
			rest = rest[:len(loopHeader)]
		}
		if bytes.HasPrefix(loopHeader, rest) {
			return k
		}
	}
	return 0
}
