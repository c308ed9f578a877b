package services

import (
	"fmt"

	"github.com/deploymenttheory/go-refs/internal/parsers/logfile"
	"github.com/deploymenttheory/go-refs/internal/types"
)

// ChangeJournalName is the name of the change journal file in the file system metadata directory
const ChangeJournalName = "Change Journal"

// LogfileLocation reads the control entry location from the logfile information table, falling back to
// its duplicate
func (v *Volume) LogfileLocation() (logfile.Location, error) {
	loc, err := v.readLogfileLocation(types.ObjectIDLogfileInformation)
	if err == nil {
		return loc, nil
	}
	v.log.WithError(err).Warn("logfile information table not read, using its duplicate")

	loc, dupErr := v.readLogfileLocation(types.ObjectIDLogfileInformationDup)
	if dupErr != nil {
		return logfile.Location{}, fmt.Errorf("logfile information: %w", err)
	}
	return loc, nil
}

func (v *Volume) readLogfileLocation(id types.ObjectID) (logfile.Location, error) {
	root, err := v.ObjectRoot(id)
	if err != nil {
		return logfile.Location{}, err
	}
	return logfile.ReadLocation(v.reader, v.containers, root, v.log)
}

// ExtractLogfile assembles the raw log byte range: both control pages followed by the data area
func (v *Volume) ExtractLogfile() ([]byte, *logfile.Control, error) {
	loc, err := v.LogfileLocation()
	if err != nil {
		return nil, nil, err
	}
	return v.ExtractLogfileAt(loc)
}

// ExtractLogfileAt assembles the raw log byte range from an already located control entry
func (v *Volume) ExtractLogfileAt(loc logfile.Location) ([]byte, *logfile.Control, error) {
	return logfile.Assemble(v.reader, loc, v.log)
}

// OpenLogfile extracts the log and opens it for scanning
func (v *Volume) OpenLogfile() (*logfile.Log, error) {
	data, _, err := v.ExtractLogfile()
	if err != nil {
		return nil, err
	}
	return logfile.Open(data, v.log)
}

// ExtractChangeJournal reads the change journal file from the file system metadata directory
func (v *Volume) ExtractChangeJournal() ([]byte, error) {
	tree, err := v.MetadataDirectory()
	if err != nil {
		return nil, err
	}
	entry, err := tree.Resolve(ChangeJournalName)
	if err != nil {
		return nil, err
	}
	content, err := v.ReadFile(entry)
	if err != nil {
		return nil, err
	}
	return content.Data, nil
}
