package packet

// Client → server opcodes.
const (
	C_OPCODE_VERSION = 0x01 // protocol version check
	C_OPCODE_LOGIN   = 0x02 // operator credentials
	C_OPCODE_ENTER   = 0x03 // start observing world state
	C_OPCODE_VIEW    = 0x04 // move view focus
	C_OPCODE_COMMAND = 0x05 // operator command line
	C_OPCODE_PING    = 0x06 // keepalive
	C_OPCODE_QUIT    = 0x07 // graceful logout
)

// Server → client opcodes.
const (
	S_OPCODE_HELLO          = 0x65 // plaintext handshake, carries the cipher seed
	S_OPCODE_VERSION_OK     = 0x66
	S_OPCODE_LOGIN_RESULT   = 0x67
	S_OPCODE_ENTER_OK       = 0x68
	S_OPCODE_PUT_OBJECT     = 0x69 // object entered view (fresh or reactivated)
	S_OPCODE_REMOVE_OBJECT  = 0x6a // object left view; follower pools its local copy
	S_OPCODE_DESTROY_OBJECT = 0x6b // object gone permanently; follower destroys
	S_OPCODE_COMMAND_RESULT = 0x6c
	S_OPCODE_PONG           = 0x6d
	S_OPCODE_DISCONNECT     = 0x6e
)
