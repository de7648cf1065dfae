package keys

// Root-scope key families: namespaces, root users, root access
// methods, cluster nodes, heartbeats, and task leases. These sit
// directly under the shared '/' prefix (spec §3 key families table),
// tagged with the literal multi-byte discriminators spec §3 shows
// (e.g. "!ns", "!hb") so a prefix scan over one family never
// enumerates another (spec §4.1 design rules).

var (
	tagNS = []byte("!ns")
	tagUS = []byte("!us")
	tagAC = []byte("!ac")
	tagND = []byte("!nd")
	tagHB = []byte("!hb")
	tagTL = []byte("!tl")
)

// Namespace encodes /!ns{ns_name}.
type Namespace struct{ Name string }

func (k Namespace) Encode() ([]byte, error) {
	return NewBuilder().Bytes(tagNS).Str(k.Name).Done()
}

func DecodeNamespace(b []byte) (Namespace, error) {
	r := NewReader(b)
	r.Byte() // '/'
	if err := expectTag(r, tagNS); err != nil {
		return Namespace{}, err
	}
	name := r.Str()
	if err := r.Done(); err != nil {
		return Namespace{}, err
	}
	return Namespace{Name: name}, nil
}

// NamespaceScopeRange brackets the whole /!ns* family, used to
// enumerate every defined namespace.
func NamespaceScopeRange() (lo, hi []byte) {
	return PrefixRange(append([]byte{prefixByte}, tagNS...))
}

// RootUser encodes /!us{user_name}.
type RootUser struct{ Name string }

func (k RootUser) Encode() ([]byte, error) {
	return NewBuilder().Bytes(tagUS).Str(k.Name).Done()
}

func DecodeRootUser(b []byte) (RootUser, error) {
	r := NewReader(b)
	r.Byte()
	if err := expectTag(r, tagUS); err != nil {
		return RootUser{}, err
	}
	name := r.Str()
	return RootUser{Name: name}, r.Done()
}

// RootAccess encodes /!ac{access_name}.
type RootAccess struct{ Name string }

func (k RootAccess) Encode() ([]byte, error) {
	return NewBuilder().Bytes(tagAC).Str(k.Name).Done()
}

func DecodeRootAccess(b []byte) (RootAccess, error) {
	r := NewReader(b)
	r.Byte()
	if err := expectTag(r, tagAC); err != nil {
		return RootAccess{}, err
	}
	name := r.Str()
	return RootAccess{Name: name}, r.Done()
}

// Node encodes /!nd{uuid}. UUID holds the 16 raw bytes of a google/uuid.
type Node struct{ UUID [16]byte }

func (k Node) Encode() ([]byte, error) {
	return NewBuilder().Bytes(tagND).Bytes(k.UUID[:]).Done()
}

func DecodeNode(b []byte) (Node, error) {
	r := NewReader(b)
	r.Byte()
	if err := expectTag(r, tagND); err != nil {
		return Node{}, err
	}
	rest := r.Bytes()
	if len(rest) != 16 {
		return Node{}, errWrongTag("Node", tagND)
	}
	var u [16]byte
	copy(u[:], rest)
	return Node{UUID: u}, r.Done()
}

func NodeScopeRange() (lo, hi []byte) {
	return PrefixRange(append([]byte{prefixByte}, tagND...))
}

// Heartbeat encodes /!hb{ts}{node_uuid}. Big-endian ts means an
// ascending prefix scan visits heartbeats oldest first, which is
// exactly what stale-node GC needs (spec §4.10).
type Heartbeat struct {
	TS       uint64
	NodeUUID [16]byte
}

func (k Heartbeat) Encode() ([]byte, error) {
	return NewBuilder().Bytes(tagHB).U64(k.TS).Bytes(k.NodeUUID[:]).Done()
}

func DecodeHeartbeat(b []byte) (Heartbeat, error) {
	r := NewReader(b)
	r.Byte()
	if err := expectTag(r, tagHB); err != nil {
		return Heartbeat{}, err
	}
	ts := r.U64()
	rest := r.Bytes()
	var u [16]byte
	copy(u[:], rest)
	return Heartbeat{TS: ts, NodeUUID: u}, r.Done()
}

func HeartbeatScopeRange() (lo, hi []byte) {
	return PrefixRange(append([]byte{prefixByte}, tagHB...))
}

// TaskLease encodes /!tl{task}. task is a fixed short name, e.g.
// "changefeed-gc", "index-compaction", "event-processing" (spec §4.10).
type TaskLease struct{ Task string }

func (k TaskLease) Encode() ([]byte, error) {
	return NewBuilder().Bytes(tagTL).Str(k.Task).Done()
}

func DecodeTaskLease(b []byte) (TaskLease, error) {
	r := NewReader(b)
	r.Byte()
	if err := expectTag(r, tagTL); err != nil {
		return TaskLease{}, err
	}
	task := r.Str()
	return TaskLease{Task: task}, r.Done()
}

func TaskLeaseScopeRange() (lo, hi []byte) {
	return PrefixRange(append([]byte{prefixByte}, tagTL...))
}
