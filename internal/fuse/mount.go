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

	fuse "bazil.org/fuse"
	fuse_fs "bazil.org/fuse/fs"
	"github.com/rs/zerolog/log"

	"github.com/asig/bitfield/internal/field"
)

// Mount serves f at dir until ctx is cancelled or the filesystem is unmounted
// externally.
func Mount(ctx context.Context, dir string, f *field.Field) error {
	c, err := fuse.Mount(dir,
		fuse.FSName("bitfield"),
		fuse.Subtype("bitfieldfs"),
	)
	if err != nil {
		return err
	}
	defer c.Close()
	log.Info().Msgf("Serving bit field %s at %s", f.Name(), dir)

	done := make(chan error, 1)
	go func() {
		done <- fuse_fs.Serve(c, NewFS(f))
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		log.Info().Msgf("Unmounting %s", dir)
		if err := fuse.Unmount(dir); err != nil {
			return err
		}
		return <-done
	}
}
