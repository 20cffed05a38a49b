/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package processor

import (
	"os"

	"github.com/MoarCatz/chat-server/internal/apperr"
)

// AvatarSource supplies the image every new profile starts with
type AvatarSource interface {
	Avatar() ([]byte, error)
}

// FileAvatar reads the placeholder image from disk on every registration.
// An empty Path means new profiles start without an image.
type FileAvatar struct {
	Path string
}

func (f FileAvatar) Avatar() ([]byte, error) {
	if f.Path == "" {
		return []byte{}, nil
	}
	image, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, apperr.Internal("cannot read default avatar", err)
	}
	return image, nil
}

// StaticAvatar serves an image already held in memory
type StaticAvatar []byte

func (s StaticAvatar) Avatar() ([]byte, error) {
	return s, nil
}
