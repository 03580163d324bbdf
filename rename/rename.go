package rename

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// clientMarkers announce the addressee in a letter; the client name is
// expected on the following line.
var clientMarkers = []string{"to:", "to,", "dear", "attention:", "attn:"}

// backupDirName is where originals are copied before renaming.
const backupDirName = "originals"

// invalidNameChars are replaced with underscores in client file names.
const invalidNameChars = `<>:"/\|?*`

// Uploader sends a local file to a drive and returns a shareable link.
type Uploader interface {
	Upload(path string) (string, error)
}

// MatchClient finds the roster client named in a page's text lines. The
// marker heuristic (name on the line after "To:", "Dear", etc.) is tried
// first; failing that, the first five lines are checked directly. Returns
// "" when nothing matches.
func MatchClient(lines []string, roster *Roster) string {
	for i, line := range lines {
		lower := strings.ToLower(line)
		for _, marker := range clientMarkers {
			if strings.Contains(lower, marker) && i+1 < len(lines) {
				candidate := cleanName(lines[i+1])
				if roster.HasClient(candidate) {
					return candidate
				}
			}
		}
	}

	head := lines
	if len(head) > 5 {
		head = head[:5]
	}
	for _, line := range head {
		candidate := cleanName(line)
		if roster.HasClient(candidate) {
			return candidate
		}
	}

	return ""
}

// cleanName strips punctuation that letters tend to append to a name.
func cleanName(s string) string {
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", "")
	return strings.TrimSpace(s)
}

// SanitizeName replaces file-system-hostile characters with underscores.
func SanitizeName(name string) string {
	for _, c := range invalidNameChars {
		name = strings.ReplaceAll(name, string(c), "_")
	}
	return strings.TrimSpace(name)
}

// Renamer processes a directory of PDFs: match, back up, rename, upload.
type Renamer struct {
	Dir      string
	Roster   *Roster
	Uploader Uploader // nil disables uploading
}

// Result counts a processing run.
type Result struct {
	Processed int
	Failed    int
}

// Process handles every PDF in the directory. Per-file failures are logged
// and counted, never fatal. The roster is saved once at the end so links
// survive even when some files failed.
func (r *Renamer) Process() (Result, error) {
	var res Result

	backupDir := filepath.Join(r.Dir, backupDirName)
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return res, fmt.Errorf("failed to create backup folder: %w", err)
	}

	entries, err := os.ReadDir(r.Dir)
	if err != nil {
		return res, fmt.Errorf("failed to read %s: %w", r.Dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".pdf") {
			continue
		}
		path := filepath.Join(r.Dir, entry.Name())
		log.Printf("INFO: processing %s", entry.Name())

		lines, err := FirstPageLines(path)
		if err != nil {
			log.Printf("ERROR: failed to extract text from %s: %v", entry.Name(), err)
			res.Failed++
			continue
		}

		client := MatchClient(lines, r.Roster)
		if client == "" {
			log.Printf("WARN: could not match a client in %s", entry.Name())
			res.Failed++
			continue
		}

		newPath, err := r.renameWithBackup(path, client)
		if err != nil {
			log.Printf("ERROR: %v", err)
			res.Failed++
			continue
		}
		log.Printf("INFO: renamed %s to %s", entry.Name(), filepath.Base(newPath))

		if r.Uploader != nil {
			link, err := r.Uploader.Upload(newPath)
			if err != nil {
				log.Printf("ERROR: failed to upload %s: %v", filepath.Base(newPath), err)
				res.Failed++
				continue
			}
			r.Roster.SetLink(client, link)
		}
		res.Processed++
	}

	if err := r.Roster.Save(); err != nil {
		return res, err
	}

	log.Printf("INFO: processing complete: %d processed, %d failed", res.Processed, res.Failed)
	return res, nil
}

// renameWithBackup copies the original into the backup folder, then
// renames it to "<client>.pdf", suffixing a counter on collisions.
func (r *Renamer) renameWithBackup(path, client string) (string, error) {
	backupPath := filepath.Join(r.Dir, backupDirName, filepath.Base(path))
	if err := copyFile(path, backupPath); err != nil {
		return "", fmt.Errorf("failed to back up %s: %w", path, err)
	}

	base := SanitizeName(client)
	newPath := filepath.Join(r.Dir, base+".pdf")
	for counter := 1; ; counter++ {
		if _, err := os.Stat(newPath); os.IsNotExist(err) {
			break
		}
		newPath = filepath.Join(r.Dir, fmt.Sprintf("%s_%d.pdf", base, counter))
	}

	if err := os.Rename(path, newPath); err != nil {
		return "", fmt.Errorf("failed to rename %s: %w", path, err)
	}
	return newPath, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
