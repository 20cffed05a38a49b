/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package entity

// Public profile of a user, created together with the user and destroyed with it.
type Profile struct {
	Name     string `gorm:"primaryKey" json:"name"`
	Status   string `gorm:"not null;default:''" json:"status"`
	Email    string `gorm:"not null;default:''" json:"email"`
	Birthday int64  `gorm:"not null;default:0" json:"birthday"`
	About    string `gorm:"not null;default:''" json:"about"`
	Image    []byte `json:"-"`
}

// ProfileSection identifies a single editable text/number field of a profile.
type ProfileSection int

const (
	SectionStatus ProfileSection = iota
	SectionEmail
	SectionBirthday
	SectionAbout
)

// Column returns the column backing the section, or false for unknown sections.
func (s ProfileSection) Column() (string, bool) {
	switch s {
	case SectionStatus:
		return "status", true
	case SectionEmail:
		return "email", true
	case SectionBirthday:
		return "birthday", true
	case SectionAbout:
		return "about", true
	}
	return "", false
}
