package content

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/setanarut/ormpack/utils"
)

// Base names of the three source textures inside a material folder. "Metalic"
// is spelled the way existing projects name the file and the material parameter.
const (
	NameOcclusion = "AO"
	NameRoughness = "Roughness"
	NameMetallic  = "Metalic"

	// ORMSuffix is appended to the folder name to name the packed texture.
	ORMSuffix = "_ORM"
)

// ErrSourceMissing indicates a folder lacks one of the three source textures.
var ErrSourceMissing = errors.New("source texture missing")

// SourceSet holds the files found in one material folder.
type SourceSet struct {
	Folder    string
	Occlusion string
	Roughness string
	Metallic  string
}

// FindSources looks in folder for AO.*, Roughness.* and Metalic.* image files.
// Base names match case-insensitively; each must resolve to exactly one file.
func FindSources(folder string) (SourceSet, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return SourceSet{}, fmt.Errorf("read folder: %w", err)
	}
	set := SourceSet{Folder: folder}
	slots := map[string]*string{
		strings.ToLower(NameOcclusion): &set.Occlusion,
		strings.ToLower(NameRoughness): &set.Roughness,
		strings.ToLower(NameMetallic):  &set.Metallic,
	}
	sawMetallic := false
	for _, e := range entries {
		if e.IsDir() || !utils.IsImageFile(e.Name()) {
			continue
		}
		base := strings.ToLower(strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
		if base == "metallic" {
			sawMetallic = true
		}
		slot, ok := slots[base]
		if !ok {
			continue
		}
		if *slot != "" {
			return SourceSet{}, fmt.Errorf("ambiguous %s source in %s: %s and %s",
				base, folder, filepath.Base(*slot), e.Name())
		}
		*slot = filepath.Join(folder, e.Name())
	}

	var missing []string
	if set.Occlusion == "" {
		missing = append(missing, NameOcclusion)
	}
	if set.Roughness == "" {
		missing = append(missing, NameRoughness)
	}
	if set.Metallic == "" {
		missing = append(missing, NameMetallic)
	}
	if len(missing) > 0 {
		err := fmt.Errorf("%w: %s in %s", ErrSourceMissing, strings.Join(missing, ", "), folder)
		if set.Metallic == "" && sawMetallic {
			err = fmt.Errorf("%w (found Metallic.*, expected %s.*)", err, NameMetallic)
		}
		return SourceSet{}, err
	}
	return set, nil
}

// Paths lists the sources in packing order: roughness, metallic, occlusion.
func (s SourceSet) Paths() []string {
	return []string{s.Roughness, s.Metallic, s.Occlusion}
}

// OutputPath returns folder/<Folder>_ORM<ext>.
func OutputPath(folder, ext string) string {
	clean := filepath.Clean(folder)
	return filepath.Join(clean, filepath.Base(clean)+ORMSuffix+ext)
}
