/*
 * This file is part of the Bit Field Tool ("bitfield")
 * Copyright (C) 2025 Andreas Signer <asigner@gmail.com>
 *
 * bitfield is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * bitfield is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with bitfield.  If not, see <https://www.gnu.org/licenses/>.
 */

package fuse

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	fuse "bazil.org/fuse"
	fuse_fs "bazil.org/fuse/fs"
	"github.com/rs/zerolog/log"

	"github.com/asig/bitfield/internal/field"
)

const (
	valueFile  = "value"
	binaryFile = "binary"

	rootInode   = 1
	valueInode  = 2
	binaryInode = 3
	bitInode    = 16 // inode of bit 0
)

type FS struct {
	field *field.Field
	uid   uint32
	gid   uint32

	mtimeMutex sync.Mutex
	mtime      time.Time
}

type dirNode struct {
	fs *FS
}

// entry is one virtual file. bit is -1 for the value and binary files.
type entry struct {
	fs       *FS
	name     string
	inode    uint64
	bit      int
	writable bool
}

type fileHandle struct {
	entry *entry
}

func NewFS(f *field.Field) *FS {
	return &FS{
		field: f,
		uid:   uint32(os.Getuid()),
		gid:   uint32(os.Getgid()),
		mtime: time.Now(),
	}
}

func (f *FS) modTime() time.Time {
	f.mtimeMutex.Lock()
	defer f.mtimeMutex.Unlock()
	return f.mtime
}

func (f *FS) touch() {
	f.mtimeMutex.Lock()
	f.mtime = time.Now()
	f.mtimeMutex.Unlock()
}

func (f *FS) Root() (fuse_fs.Node, error) {
	return &dirNode{fs: f}, nil
}

// BitFileName returns the name of the file exposing bit i, e.g. "03_Visible".
func BitFileName(f *field.Field, i int) string {
	label := f.Label(i)
	if label == field.Unused {
		label = "unused"
	}
	return fmt.Sprintf("%02d_%s", i, sanitize(label))
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		}
		return '_'
	}, s)
}

func (f *FS) entries() []*entry {
	res := []*entry{
		{fs: f, name: valueFile, inode: valueInode, bit: -1, writable: true},
		{fs: f, name: binaryFile, inode: binaryInode, bit: -1},
	}
	for i := 0; i < f.field.Width(); i++ {
		res = append(res, &entry{fs: f, name: BitFileName(f.field, i), inode: bitInode + uint64(i), bit: i, writable: true})
	}
	return res
}

func (d *dirNode) Attr(ctx context.Context, a *fuse.Attr) error {
	a.Inode = rootInode
	a.Mode = os.ModeDir | 0755
	a.Uid = d.fs.uid
	a.Gid = d.fs.gid
	a.Mtime = d.fs.modTime()
	return nil
}

func (d *dirNode) Lookup(ctx context.Context, name string) (fuse_fs.Node, error) {
	log.Debug().Msgf("FUSE Lookup for %s", name)
	for _, e := range d.fs.entries() {
		if e.name == name {
			return e, nil
		}
	}
	return nil, syscall.ENOENT
}

func (d *dirNode) ReadDirAll(ctx context.Context) ([]fuse.Dirent, error) {
	log.Debug().Msgf("FUSE ReadDirAll")
	var res []fuse.Dirent
	for _, e := range d.fs.entries() {
		res = append(res, fuse.Dirent{
			Inode: e.inode,
			Name:  e.name,
			Type:  fuse.DT_File,
		})
	}
	return res, nil
}

// content returns the current file contents.
func (e *entry) content() ([]byte, error) {
	f := e.fs.field
	switch {
	case e.name == valueFile:
		return []byte(f.Decimal() + "\n"), nil
	case e.name == binaryFile:
		return []byte(f.Binary() + "\n"), nil
	}
	set, err := f.Bit(e.bit)
	if err != nil {
		return nil, err
	}
	if set {
		return []byte("1\n"), nil
	}
	return []byte("0\n"), nil
}

func (e *entry) Attr(ctx context.Context, a *fuse.Attr) error {
	log.Debug().Msgf("FUSE Attr for file %s", e.name)
	data, err := e.content()
	if err != nil {
		return err
	}
	a.Inode = e.inode
	a.Mode = 0444
	if e.writable {
		a.Mode = 0644
	}
	a.Size = uint64(len(data))
	mtime := e.fs.modTime()
	a.Mtime = mtime
	a.Ctime = mtime
	a.Atime = mtime
	a.Uid = e.fs.uid
	a.Gid = e.fs.gid
	return nil
}

func (e *entry) Open(ctx context.Context, req *fuse.OpenRequest, resp *fuse.OpenResponse) (fuse_fs.Handle, error) {
	log.Debug().Msgf("FUSE Open for file %s: req = %+v", e.name, req)
	if !e.writable && !req.Flags.IsReadOnly() {
		return nil, syscall.EPERM
	}
	// Contents change behind the kernel's back, don't let it cache them.
	resp.Flags |= fuse.OpenDirectIO
	return &fileHandle{entry: e}, nil
}

// Setattr accepts the truncation done by shell redirects. The contents are
// derived from the field, so sizes are not stored.
func (e *entry) Setattr(ctx context.Context, req *fuse.SetattrRequest, resp *fuse.SetattrResponse) error {
	log.Debug().Msgf("FUSE Setattr for file %s: req = %+v", e.name, req)
	if !e.writable && req.Valid.Size() {
		return syscall.EPERM
	}
	return e.Attr(ctx, &resp.Attr)
}

func (h *fileHandle) Read(ctx context.Context, req *fuse.ReadRequest, resp *fuse.ReadResponse) error {
	log.Debug().Msgf("FUSE Read for file %s: offset = %d, size = %d", h.entry.name, req.Offset, req.Size)
	data, err := h.entry.content()
	if err != nil {
		return err
	}
	if req.Offset >= int64(len(data)) {
		resp.Data = []byte{}
		return nil
	}
	end := req.Offset + int64(req.Size)
	if end > int64(len(data)) {
		end = int64(len(data))
	}
	resp.Data = data[req.Offset:end]
	return nil
}

func (h *fileHandle) Write(ctx context.Context, req *fuse.WriteRequest, resp *fuse.WriteResponse) error {
	log.Debug().Msgf("FUSE Write for file %s: offset = %d, data = %q", h.entry.name, req.Offset, req.Data)
	e := h.entry
	if !e.writable {
		return syscall.EPERM
	}
	input := strings.TrimSpace(string(req.Data))
	var err error
	if e.bit < 0 {
		err = e.fs.field.SetValue(input)
	} else {
		err = writeBit(e.fs.field, e.bit, input)
	}
	if err != nil {
		log.Debug().Err(err).Msgf("FUSE Write for file %s rejected", e.name)
		return syscall.EINVAL
	}
	e.fs.touch()
	resp.Size = len(req.Data)
	return nil
}

func writeBit(f *field.Field, bit int, input string) error {
	switch strings.ToLower(input) {
	case "t", "toggle", "~":
		return f.ToggleBit(bit)
	}
	v, err := strconv.ParseBool(input)
	if err != nil {
		return err
	}
	return f.SetBit(bit, v)
}

func (h *fileHandle) Flush(ctx context.Context, req *fuse.FlushRequest) error {
	return nil
}

func (h *fileHandle) Release(ctx context.Context, req *fuse.ReleaseRequest) error {
	return nil
}
