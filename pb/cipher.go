// Package pb holds the wire messages exchanged by the cipher transport.
package pb

import (
	"github.com/gogo/protobuf/proto"
)

// CipherRequest asks a server to run one encryption or decryption
type CipherRequest struct {
	// "encrypt" or "decrypt"
	Op string `protobuf:"bytes,1,opt,name=op,proto3" json:"op,omitempty"`
	// alphabet selector, "eng" when empty
	Alphabet string `protobuf:"bytes,2,opt,name=alphabet,proto3" json:"alphabet,omitempty"`
	Word     string `protobuf:"bytes,3,opt,name=word,proto3" json:"word,omitempty"`
	// catalog cipher name; ignored when KeyFile is set
	Cipher string `protobuf:"bytes,4,opt,name=cipher,proto3" json:"cipher,omitempty"`
	// encoded key file carrying A and b
	KeyFile []byte `protobuf:"bytes,5,opt,name=key_file,json=keyFile,proto3" json:"key_file,omitempty"`
	// unknown character policy: "reject", "random" or "fixed:<n>"
	UnknownPolicy string `protobuf:"bytes,6,opt,name=unknown_policy,json=unknownPolicy,proto3" json:"unknown_policy,omitempty"`
	Truncate      bool   `protobuf:"varint,7,opt,name=truncate,proto3" json:"truncate,omitempty"`
}

func (m *CipherRequest) Reset()         { *m = CipherRequest{} }
func (m *CipherRequest) String() string { return proto.CompactTextString(m) }
func (*CipherRequest) ProtoMessage()    {}

// CipherResponse carries the transformed word and the raw arrays.
// Matrices are flattened row-major with Size columns.
type CipherResponse struct {
	Error     string   `protobuf:"bytes,1,opt,name=error,proto3" json:"error,omitempty"`
	Input     string   `protobuf:"bytes,2,opt,name=input,proto3" json:"input,omitempty"`
	Output    string   `protobuf:"bytes,3,opt,name=output,proto3" json:"output,omitempty"`
	Size      uint32   `protobuf:"varint,4,opt,name=size,proto3" json:"size,omitempty"`
	Word      []uint32 `protobuf:"varint,5,rep,packed,name=word,proto3" json:"word,omitempty"`
	Lock      []uint32 `protobuf:"varint,6,rep,packed,name=lock,proto3" json:"lock,omitempty"`
	Constant  []uint32 `protobuf:"varint,7,rep,packed,name=constant,proto3" json:"constant,omitempty"`
	Key       []uint32 `protobuf:"varint,8,rep,packed,name=key,proto3" json:"key,omitempty"`
	Encrypted []uint32 `protobuf:"varint,9,rep,packed,name=encrypted,proto3" json:"encrypted,omitempty"`
	// the cipher used, as an encoded key file for later replay
	KeyFile       []byte `protobuf:"bytes,10,opt,name=key_file,json=keyFile,proto3" json:"key_file,omitempty"`
	Truncated     bool   `protobuf:"varint,11,opt,name=truncated,proto3" json:"truncated,omitempty"`
	Substitutions uint32 `protobuf:"varint,12,opt,name=substitutions,proto3" json:"substitutions,omitempty"`
}

func (m *CipherResponse) Reset()         { *m = CipherResponse{} }
func (m *CipherResponse) String() string { return proto.CompactTextString(m) }
func (*CipherResponse) ProtoMessage()    {}
