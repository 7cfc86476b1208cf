package transport

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/gogo/protobuf/proto"
)

// MaxMessageSize caps an encoded request or response
const MaxMessageSize = 1 << 20

// ErrMessageTooLarge is returned for messages above MaxMessageSize
var ErrMessageTooLarge = errors.New("message too large")

// ByteCounter tracks bytes moved over streams
type ByteCounter interface {
	AddBytesSent(n uint64)
	AddBytesReceived(n uint64)
}

// writeMessage writes msg with a 4-byte big-endian length prefix
func writeMessage(w io.Writer, msg proto.Message, counter ByteCounter) error {
	data, err := proto.Marshal(msg)
	if err != nil {
		return err
	}
	if len(data) > MaxMessageSize {
		return fmt.Errorf("%w: %d bytes", ErrMessageTooLarge, len(data))
	}

	buf := make([]byte, 4+len(data))
	binary.BigEndian.PutUint32(buf, uint32(len(data)))
	copy(buf[4:], data)
	if _, err := w.Write(buf); err != nil {
		return err
	}
	if counter != nil {
		counter.AddBytesSent(uint64(len(buf)))
	}
	return nil
}

// readMessage reads one length-prefixed message into msg
func readMessage(r io.Reader, msg proto.Message, counter ByteCounter) error {
	var lengthBuf [4]byte
	if _, err := io.ReadFull(r, lengthBuf[:]); err != nil {
		return err
	}
	length := binary.BigEndian.Uint32(lengthBuf[:])
	if length > MaxMessageSize {
		return fmt.Errorf("%w: %d bytes", ErrMessageTooLarge, length)
	}

	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return err
	}
	if counter != nil {
		counter.AddBytesReceived(uint64(4 + len(buf)))
	}
	return proto.Unmarshal(buf, msg)
}

// stats implements ByteCounter
type stats struct {
	mutex         sync.Mutex
	bytesSent     uint64
	bytesReceived uint64
}

// AddBytesSent increments the sent byte counter
func (s *stats) AddBytesSent(n uint64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.bytesSent += n
}

// AddBytesReceived increments the received byte counter
func (s *stats) AddBytesReceived(n uint64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.bytesReceived += n
}

// BytesSent returns the total bytes sent
func (s *stats) BytesSent() uint64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.bytesSent
}

// BytesReceived returns the total bytes received
func (s *stats) BytesReceived() uint64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.bytesReceived
}
