package extractor

import (
	"archive/zip"
	"encoding/xml"
	"io"
	"math"
	"path"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const containerPath = "META-INF/container.xml"

type container struct {
	XMLName   xml.Name `xml:"container"`
	Rootfiles struct {
		Rootfile []struct {
			FullPath  string `xml:"full-path,attr"`
			MediaType string `xml:"media-type,attr"`
		} `xml:"rootfile"`
	} `xml:"rootfiles"`
}

type opfPackage struct {
	XMLName  xml.Name `xml:"package"`
	Version  string   `xml:"version,attr"`
	Metadata struct {
		Title []struct {
			Text string `xml:",chardata"`
			ID   string `xml:"id,attr"`
		} `xml:"title"`
		Creator []struct {
			Text   string `xml:",chardata"`
			ID     string `xml:"id,attr"`
			Role   string `xml:"role,attr"`
			FileAs string `xml:"file-as,attr"`
		} `xml:"creator"`
		Publisher []string `xml:"publisher"`
		Date      []string `xml:"date"`
		Language  []string `xml:"language"`
		Subject   []string `xml:"subject"`
		Meta      []struct {
			Text     string `xml:",chardata"`
			ID       string `xml:"id,attr"`
			Name     string `xml:"name,attr"`
			Content  string `xml:"content,attr"`
			Refines  string `xml:"refines,attr"`
			Property string `xml:"property,attr"`
		} `xml:"meta"`
	} `xml:"metadata"`
}

func parseEPUB(filename string) (Result, error) {
	zr, err := zip.OpenReader(filename)
	if err != nil {
		return Result{}, errors.WithStack(err)
	}
	defer zr.Close()

	rootfile, err := findRootfile(&zr.Reader)
	if err != nil {
		return Result{}, err
	}
	for _, file := range zr.File {
		if file.Name != rootfile {
			continue
		}
		r, err := file.Open()
		if err != nil {
			return Result{}, errors.WithStack(err)
		}
		defer r.Close()
		return parseOPF(r)
	}
	return Result{}, errors.Errorf("opf %q listed in container but missing from archive", rootfile)
}

// findRootfile returns the OPF path named by META-INF/container.xml, or the
// first .opf entry when the container is missing or unusable.
func findRootfile(zr *zip.Reader) (string, error) {
	for _, file := range zr.File {
		if file.Name != containerPath {
			continue
		}
		r, err := file.Open()
		if err != nil {
			return "", errors.WithStack(err)
		}
		var c container
		decodeErr := xml.NewDecoder(r).Decode(&c)
		_ = r.Close()
		if decodeErr == nil {
			for _, rf := range c.Rootfiles.Rootfile {
				if rf.FullPath != "" {
					return rf.FullPath, nil
				}
			}
		}
		break
	}
	for _, file := range zr.File {
		if strings.EqualFold(path.Ext(file.Name), ".opf") {
			return file.Name, nil
		}
	}
	return "", errors.New("no opf file found")
}

func parseOPF(r io.Reader) (Result, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return Result{}, errors.WithStack(err)
	}
	pkg := &opfPackage{}
	if err := xml.Unmarshal(b, pkg); err != nil {
		return Result{}, errors.WithStack(err)
	}

	// Refinements keyed by the id they refine, plus EPUB2 name/content pairs.
	refines := map[string]map[string]string{}
	named := map[string]string{}
	var collections []string
	for _, m := range pkg.Metadata.Meta {
		switch {
		case m.Refines != "":
			key := strings.TrimPrefix(m.Refines, "#")
			if refines[key] == nil {
				refines[key] = map[string]string{}
			}
			refines[key][m.Property] = strings.TrimSpace(m.Text)
		case m.Property == "belongs-to-collection":
			collections = append(collections, m.ID)
			if refines[m.ID] == nil {
				refines[m.ID] = map[string]string{}
			}
			refines[m.ID]["name"] = strings.TrimSpace(m.Text)
		case m.Name != "":
			named[m.Name] = m.Content
		}
	}

	var result Result

	titles := pkg.Metadata.Title
	if len(titles) > 0 {
		result.Title = titles[0].Text
		for _, t := range titles {
			if t.ID != "" && refines[t.ID]["title-type"] == "main" {
				result.Title = t.Text
				break
			}
		}
	}

	creators := pkg.Metadata.Creator
	for _, creator := range creators {
		role := creator.Role
		if role == "" && creator.ID != "" {
			role = refines[creator.ID]["role"]
		}
		if role == "aut" || role == "" || len(creators) == 1 {
			result.Authors = append(result.Authors, creator.Text)
		}
	}

	result.Publisher = first(pkg.Metadata.Publisher)
	result.PubDate = first(pkg.Metadata.Date)
	result.Language = first(pkg.Metadata.Language)
	result.Tags = pkg.Metadata.Subject

	result.Series = strings.TrimSpace(named["calibre:series"])
	result.SeriesIndex = parseIndex(named["calibre:series_index"])
	if result.Series == "" {
		for _, id := range collections {
			if props := refines[id]; props["collection-type"] == "" || props["collection-type"] == "series" {
				result.Series = props["name"]
				result.SeriesIndex = parseIndex(props["group-position"])
				break
			}
		}
	}

	return result, nil
}

func first(values []string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func parseIndex(value string) *float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	num, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(num) || math.IsInf(num, 0) || num < 0 {
		return nil
	}
	return &num
}
