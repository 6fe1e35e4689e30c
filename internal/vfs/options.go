package vfs

import "fmt"

// TransferType selects the FTP transfer mode for a stream or copy.
type TransferType int

const (
	// TypeDefault leaves the session's current transfer mode untouched.
	TypeDefault TransferType = iota
	TypeASCII
	TypeBinary
)

// OpenOption configures OpenRead / OpenWrite.
type OpenOption string

const (
	Read          OpenOption = "read"
	Write         OpenOption = "write"
	Append        OpenOption = "append"
	Create        OpenOption = "create"
	CreateNew     OpenOption = "create-new"
	DeleteOnClose OpenOption = "delete-on-close"
	OpenASCII     OpenOption = "ascii"
	OpenBinary    OpenOption = "binary"
)

// OpenOptions is the validated result of parsing open options.
type OpenOptions struct {
	Read          bool
	Write         bool
	Append        bool
	Create        bool
	CreateNew     bool
	DeleteOnClose bool
	Type          TransferType
}

// ForRead validates options for a read stream. Read is implied; write-side
// options are rejected.
func ForRead(opts ...OpenOption) (OpenOptions, error) {
	out := OpenOptions{Read: true}
	for _, o := range opts {
		switch o {
		case Read:
			// implied
		case DeleteOnClose:
			out.DeleteOnClose = true
		case OpenASCII, OpenBinary:
			if err := out.setType(o == OpenASCII); err != nil {
				return OpenOptions{}, err
			}
		default:
			return OpenOptions{}, fmt.Errorf("vfs: unsupported open option for reading: %s", o)
		}
	}
	return out, nil
}

// ForWrite validates options for a write stream. Write is implied; with no
// create option the target must already exist.
func ForWrite(opts ...OpenOption) (OpenOptions, error) {
	out := OpenOptions{Write: true}
	for _, o := range opts {
		switch o {
		case Write:
			// implied
		case Append:
			out.Append = true
		case Create:
			out.Create = true
		case CreateNew:
			out.CreateNew = true
		case OpenASCII, OpenBinary:
			if err := out.setType(o == OpenASCII); err != nil {
				return OpenOptions{}, err
			}
		default:
			return OpenOptions{}, fmt.Errorf("vfs: unsupported open option for writing: %s", o)
		}
	}
	return out, nil
}

func (o *OpenOptions) setType(ascii bool) error {
	t := TypeBinary
	if ascii {
		t = TypeASCII
	}
	if o.Type != TypeDefault && o.Type != t {
		return fmt.Errorf("vfs: conflicting transfer types")
	}
	o.Type = t
	return nil
}

// CopyOption configures Copy / Move.
type CopyOption string

const (
	ReplaceExisting CopyOption = "replace-existing"
	AtomicMove      CopyOption = "atomic-move"
	CopyAttributes  CopyOption = "copy-attributes"
	CopyASCII       CopyOption = "ascii"
	CopyBinary      CopyOption = "binary"
)

// CopyOptions is the validated result of parsing copy/move options.
type CopyOptions struct {
	ReplaceExisting bool
	Type            TransferType
}

// ForCopy validates options for Copy. Attribute copies and atomic moves
// are not expressible over FTP and are rejected.
func ForCopy(opts ...CopyOption) (CopyOptions, error) {
	var out CopyOptions
	for _, o := range opts {
		switch o {
		case ReplaceExisting:
			out.ReplaceExisting = true
		case CopyASCII, CopyBinary:
			if err := out.setType(o == CopyASCII); err != nil {
				return CopyOptions{}, err
			}
		default:
			return CopyOptions{}, fmt.Errorf("vfs: unsupported copy option: %s", o)
		}
	}
	return out, nil
}

// ForMove validates options for Move. AtomicMove is accepted: a
// server-side rename is atomic already.
func ForMove(opts ...CopyOption) (CopyOptions, error) {
	var out CopyOptions
	for _, o := range opts {
		switch o {
		case ReplaceExisting:
			out.ReplaceExisting = true
		case AtomicMove:
			// rename is atomic on the server
		default:
			return CopyOptions{}, fmt.Errorf("vfs: unsupported move option: %s", o)
		}
	}
	return out, nil
}

func (o *CopyOptions) setType(ascii bool) error {
	t := TypeBinary
	if ascii {
		t = TypeASCII
	}
	if o.Type != TypeDefault && o.Type != t {
		return fmt.Errorf("vfs: conflicting transfer types")
	}
	o.Type = t
	return nil
}
