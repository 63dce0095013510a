package parser

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"path"
	"strings"
)

const containerPath = "META-INF/container.xml"

type mxlContainer struct {
	Rootfiles []struct {
		FullPath  string `xml:"full-path,attr"`
		MediaType string `xml:"media-type,attr"`
	} `xml:"rootfiles>rootfile"`
}

// unpackMXL returns the root MusicXML document of a compressed score
func unpackMXL(data []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("invalid archive: %w", err)
	}

	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}

	rootPath, err := mxlRootPath(files)
	if err != nil {
		return nil, err
	}
	f, ok := files[rootPath]
	if !ok {
		return nil, fmt.Errorf("root file %s missing from archive", rootPath)
	}
	return readZipFile(f)
}

// mxlRootPath picks the container's first MusicXML rootfile, falling back
// to the first .xml file outside META-INF
func mxlRootPath(files map[string]*zip.File) (string, error) {
	if f, ok := files[containerPath]; ok {
		data, err := readZipFile(f)
		if err != nil {
			return "", err
		}
		var c mxlContainer
		if err := xml.Unmarshal(data, &c); err != nil {
			return "", fmt.Errorf("invalid container: %w", err)
		}
		for _, rf := range c.Rootfiles {
			if rf.MediaType == "" || strings.Contains(rf.MediaType, "musicxml") {
				return rf.FullPath, nil
			}
		}
	}

	var best string
	for name := range files {
		if strings.HasPrefix(name, "META-INF/") || path.Ext(name) != ".xml" {
			continue
		}
		if best == "" || name < best {
			best = name
		}
	}
	if best == "" {
		return "", errors.New("archive holds no MusicXML document")
	}
	return best, nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", f.Name, err)
	}
	defer func() { _ = rc.Close() }()

	data, err := readLimited(rc, maxSourceSize)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.Name, err)
	}
	return data, nil
}
