// Package consts holds the named format constants for the PortableFS
// container layout: field widths, the magic prefix, the drive alphabet, and
// the structural limits implied by those field widths.
package consts

const (
	// Magic is the literal 4-byte prefix every container starts with.
	Magic = "pfs0"

	// FormatV1 and FormatV2 are the on-disk format versions. The stored
	// version byte is the format version minus one.
	FormatV1 = 1
	FormatV2 = 2

	// ContainerNameSize is the fixed width, in bytes, of the right-padded
	// container name field.
	ContainerNameSize = 13

	// DriveAlphabet enumerates the 16 legal single-letter drive names, in
	// the order their high-nibble index refers to.
	DriveAlphabet = "ABCDEFGHIJKLMNOP"

	// MaxDrives is the maximum number of drives a container may hold. The
	// drive alphabet and the 4-bit drive id field both allow 16 distinct
	// drives, but the drive *count* ahead of the table is itself only a
	// 4-bit nibble (values 0-15), so 15 is the real ceiling a well-formed
	// container can declare without the count wrapping on encode.
	MaxDrives = 15

	// MinDirectoryID and MaxDirectoryID bound the legal range for a
	// directory id. Ids at or below 0x0F are reserved as drive-root
	// pseudo-parents.
	MinDirectoryID = 0x0010
	MaxDirectoryID = 0x7FFF

	// MaxDirectories is the field-width ceiling for the directory count
	// (2 bytes, big-endian).
	MaxDirectories = 1<<16 - 1

	// MaxFiles is the field-width ceiling for the file count (3 bytes,
	// big-endian).
	MaxFiles = 1<<24 - 1

	// MaxNameBytes is the maximum length, in utf-8 bytes, of a directory
	// or file name.
	MaxNameBytes = 255

	// MinCompressionLevel, MaxCompressionLevel, and DefaultCompressionLevel
	// bound the zstd compression level field (bits 6..0 of the
	// compression byte).
	MinCompressionLevel     = 1
	MaxCompressionLevel     = 22
	DefaultCompressionLevel = 10

	// CompressedFlagBit is the bit (bit 7) of the v2 compression byte that
	// marks the data region as compressed.
	CompressedFlagBit = 0x80
	// CompressionLevelMask isolates the 7-bit level field.
	CompressionLevelMask = 0x7F

	// OrphanSweepLimit is the number of consecutive no-progress sweeps the
	// tree reconstructor tolerates before declaring the input an orphan or
	// a cycle.
	OrphanSweepLimit = 50
)

// DirectoryAttrHidden is the bit (bit 7) of a directory's attribute byte.
const DirectoryAttrHidden = 0x80

// File attribute bits (bits 7, 6, 5 of a file's attribute byte).
const (
	FileAttrReadOnly = 0x80
	FileAttrHidden   = 0x40
	FileAttrSystem   = 0x20
)
