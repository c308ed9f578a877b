package browse

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/deploymenttheory/go-refs/internal/parsers/directory"
	"github.com/deploymenttheory/go-refs/internal/services"
	"github.com/deploymenttheory/go-refs/internal/types"
	"github.com/deploymenttheory/go-refs/pkg/app"
)

// HandleInfo reports the bootstrap structures of a volume
func HandleInfo(ctx *app.Context, req *InfoRequest) (*InfoResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	vol, err := ctx.Open(req.Source)
	if err != nil {
		return nil, err
	}
	defer vol.Close()

	h := vol.Header
	resp := &InfoResponse{
		Path:           req.Source.Path,
		Offset:         vol.Offset(),
		Version:        fmt.Sprintf("%d.%d", h.MajorVersion, h.MinorVersion),
		Supported:      vol.Supported,
		Sectors:        h.Sectors,
		BytesPerSector: h.BytesPerSector,
		ClusterSize:    h.ClusterSize(),
	}
	if !vol.Supported {
		ctx.Log(fmt.Sprintf("ReFS %s is recognized but not decoded", resp.Version))
		return resp, nil
	}

	resp.GUID = vol.GUID().String()
	resp.CheckpointSlot = vol.CheckpointSlot
	resp.CheckpointVersion = fmt.Sprintf("%d.%d", vol.Checkpoint.MajorVersion, vol.Checkpoint.MinorVersion)
	resp.ClustersPerContainer = vol.ClustersPerContainer()

	mappings, err := vol.ContainerMappings()
	if err != nil {
		return nil, app.Classify("failed to list containers", err)
	}
	resp.Containers = len(mappings)

	for _, entry := range vol.Checkpoint.Entries {
		resp.Reserved = append(resp.Reserved, ReservedEntry{
			Name:        entry.Name,
			LCNs:        entry.LCNs.String(),
			ZeroPadding: entry.ZeroPadding,
		})
	}
	return resp, nil
}

// HandleList lists one directory
func HandleList(ctx *app.Context, req *ListRequest) (*ListResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	vol, err := ctx.Open(req.Source)
	if err != nil {
		return nil, err
	}
	defer vol.Close()

	tree, err := vol.OpenPath(req.Path)
	if err != nil {
		return nil, app.Classify(fmt.Sprintf("failed to open directory %q", req.Path), err)
	}

	resp := &ListResponse{Path: "/" + strings.Join(services.SplitPath(req.Path), "/"), Directory: tree.ObjectID().String()}
	for entry, err := range tree.List() {
		if err != nil {
			return nil, app.Classify(fmt.Sprintf("failed to list %s", resp.Path), err)
		}
		if err := ctx.Canceled(); err != nil {
			return nil, err
		}
		if !req.All && entry.Kind != directory.EntryFile && entry.Kind != directory.EntryDirectory {
			continue
		}
		resp.Entries = append(resp.Entries, entryResult(entry))
	}
	resp.Total = len(resp.Entries)

	ctx.Log(fmt.Sprintf("%s: %d entries", resp.Path, resp.Total))
	return resp, nil
}

func entryResult(entry *directory.Entry) EntryResult {
	result := EntryResult{
		Name: entry.Name,
		Kind: entry.Kind.String(),
		Type: types.FileTypeName(entry.FileType),
		Flag: entry.Flag,
	}
	if entry.Record != nil {
		result.ObjectID = entry.Record.ObjectID.String()
		result.Size = entry.Record.FileSize
		result.Created = entry.Record.Timestamps.Created
		result.Modified = entry.Record.Timestamps.Modified
		result.Accessed = entry.Record.Timestamps.Accessed
		result.Changed = entry.Record.Timestamps.Changed
	}
	for _, attr := range entry.Index {
		result.Index = append(result.Index, attr.Name)
	}
	return result
}

// HandleCat reads a regular file
func HandleCat(ctx *app.Context, req *CatRequest) (*CatResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	vol, err := ctx.Open(req.Source)
	if err != nil {
		return nil, err
	}
	defer vol.Close()

	content, err := vol.ReadPath(req.Path)
	if err != nil {
		return nil, app.Classify(fmt.Sprintf("failed to read %q", req.Path), err)
	}
	if len(content.Extents) > 1 {
		ctx.Log(fmt.Sprintf("%s has %d extents", req.Path, len(content.Extents)))
	}

	return &CatResponse{Path: req.Path, Content: content, Data: hex.EncodeToString(content.Data)}, nil
}

// HandleTranslate maps virtual LCNs to physical LCNs through the container table
func HandleTranslate(ctx *app.Context, req *TranslateRequest) (*TranslateResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	vol, err := ctx.Open(req.Source)
	if err != nil {
		return nil, err
	}
	defer vol.Close()

	var physical types.LCNTuple
	if len(req.LCNs) == 1 {
		physical[0], err = vol.Translate(req.LCNs[0])
		if err != nil {
			return nil, app.Classify(fmt.Sprintf("failed to translate %#x", req.LCNs[0]), err)
		}
	} else {
		var tuple types.LCNTuple
		copy(tuple[:], req.LCNs)
		if physical, err = vol.TranslateTuple(tuple); err != nil {
			return nil, app.Classify(fmt.Sprintf("failed to translate %s", tuple), err)
		}
	}

	resp := &TranslateResponse{ClustersPerContainer: vol.ClustersPerContainer()}
	for i, lcn := range req.LCNs {
		key, local, err := vol.SplitLCN(lcn)
		if err != nil {
			return nil, app.Classify("failed to split LCN", err)
		}
		resp.Results = append(resp.Results, TranslateResult{Virtual: lcn, Key: key, Local: local, Physical: physical[i]})
	}
	return resp, nil
}

// HandleObjects lists the object table
func HandleObjects(ctx *app.Context, req *ObjectsRequest) (*ObjectsResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	vol, err := ctx.Open(req.Source)
	if err != nil {
		return nil, err
	}
	defer vol.Close()

	resp := &ObjectsResponse{}
	for record, err := range vol.Objects() {
		if err != nil {
			return nil, app.Classify("failed to walk the object table", err)
		}
		if err := ctx.Canceled(); err != nil {
			return nil, err
		}

		result := ObjectResult{
			ID:   record.ID.String(),
			Name: types.WellKnownObjectName(record.ID),
			LCNs: record.LCNs.String(),
		}
		if physical, err := vol.TranslateTuple(record.LCNs); err == nil {
			result.Physical = physical.String()
		} else {
			ctx.Diagnostics().WithError(err).WithField("object", result.ID).Debug("object root not translated")
		}
		resp.Objects = append(resp.Objects, result)
	}
	resp.Total = len(resp.Objects)
	return resp, nil
}
