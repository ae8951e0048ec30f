package models

import (
	"os"
	"time"
)

// AssetRef points at a binary asset in object storage. URL and Handle are
// stored and cleared together: a ref is either empty or complete.
type AssetRef struct {
	// URL is the public address of the asset.
	URL string
	// Handle is the opaque storage id used to destroy the asset later.
	Handle string
}

// Empty reports whether no asset is referenced.
func (a AssetRef) Empty() bool {
	return a.URL == "" && a.Handle == ""
}

// Complete reports whether both halves of the pair are set.
func (a AssetRef) Complete() bool {
	return a.URL != "" && a.Handle != ""
}

// Specimen is one catalog entry: a plant or a fish.
type Specimen struct {
	ID             int64     `json:"id"`
	Kind           Kind      `json:"kind"`
	Name           string    `json:"name"`
	ScientificName *string   `json:"scientific_name"`
	Category       *string   `json:"category"`
	Description    *string   `json:"description"`
	Image          AssetRef  `json:"-"`
	ScanCode       AssetRef  `json:"-"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// SpecimenFields is the input to a create.
type SpecimenFields struct {
	Name           string `validate:"required,max=200"`
	ScientificName string `validate:"max=200"`
	Category       string `validate:"max=100"`
	Description    string `validate:"max=10000"`
}

// SpecimenPatch is the input to an update. Absent fields are left unchanged.
// A present empty value clears a nullable column; Name may not be cleared.
type SpecimenPatch struct {
	Name           Optional[string]
	ScientificName Optional[string]
	Category       Optional[string]
	Description    Optional[string]
}

// Empty reports whether the patch changes no text field.
func (p SpecimenPatch) Empty() bool {
	return !p.Name.Set && !p.ScientificName.Set && !p.Category.Set && !p.Description.Set
}

// ImageFile is an uploaded image staged on local disk. Whoever consumes it
// must call Remove once the upload attempt is over.
type ImageFile struct {
	Path         string
	OriginalName string
	Size         int64
}

// Remove deletes the staged file. Missing files are not an error.
func (f *ImageFile) Remove() error {
	if f == nil || f.Path == "" {
		return nil
	}
	if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
