package hardware

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// HMU1440 geometry: 1.44 MB of 16-bit words.
const (
	MediaSectorLength = 512
	MediaSectorCount  = 1440
)

// Quality levels reported by QUERY_MEDIA_QUALITY.
const (
	QualityAuthentic uint16 = 0x7fff
	QualityOther     uint16 = 0xffff
)

/*
An HMU1440 is a disk for the HMD2043 drive. Media may be backed by an image
file, stored big-endian: the first byte of the file is the high portion of the
first word, and the second byte is the low part. Short images read as zeroes
past their end.
*/
type HMU1440 struct {
	data        []uint16
	WriteLocked bool
	Quality     uint16

	path string
}

// NewHMU1440 returns blank, unbacked media.
func NewHMU1440() *HMU1440 {
	return &HMU1440{
		data:    make([]uint16, MediaSectorLength*MediaSectorCount),
		Quality: QualityAuthentic,
	}
}

// OpenMedia loads media from an image file. A missing file gives blank media
// that Save will create.
func OpenMedia(path string) (*HMU1440, error) {
	m := NewHMU1440()
	m.path = path

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return m, nil
	} else if err != nil {
		return nil, fmt.Errorf("opening disk image: %w", err)
	}
	defer f.Close()

	if err := m.LoadImage(f); err != nil {
		return nil, fmt.Errorf("reading disk image %s: %w", path, err)
	}
	return m, nil
}

// LoadImage fills the media from a big-endian image.
func (m *HMU1440) LoadImage(r io.Reader) error {
	buf := make([]byte, 2*len(m.data))
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return err
	}
	if n < len(buf) {
		clear(buf[n:])
	}
	for i := range m.data {
		m.data[i] = binary.BigEndian.Uint16(buf[2*i:])
	}
	return nil
}

// StoreImage writes the whole media as a big-endian image.
func (m *HMU1440) StoreImage(w io.Writer) error {
	buf := make([]byte, 2*len(m.data))
	for i, v := range m.data {
		binary.BigEndian.PutUint16(buf[2*i:], v)
	}
	_, err := w.Write(buf)
	return err
}

// Save writes file-backed media back to its image. Unbacked media is a no-op.
func (m *HMU1440) Save() error {
	if m.path == "" {
		return nil
	}
	f, err := os.Create(m.path)
	if err != nil {
		return fmt.Errorf("saving disk image: %w", err)
	}
	if err := m.StoreImage(f); err != nil {
		f.Close()
		return fmt.Errorf("saving disk image %s: %w", m.path, err)
	}
	return f.Close()
}

// Path is the backing image, if any.
func (m *HMU1440) Path() string { return m.path }

func (m *HMU1440) SectorLength() int { return MediaSectorLength }
func (m *HMU1440) SectorCount() int  { return MediaSectorCount }

// Sector returns the words of sector i. The slice aliases the media.
func (m *HMU1440) Sector(i int) []uint16 {
	return m.data[i*MediaSectorLength : (i+1)*MediaSectorLength]
}
