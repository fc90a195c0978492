package imagecache

import "io"

// Source supplies the bytes backing one cached file. Callers own the
// underlying handle (typically an *os.File or an in-memory reader) and are
// responsible for closing it; the cache never opens or closes files on its
// own, only reads from what it is given.
type Source interface {
	io.ReaderAt
	Size() int64
}
