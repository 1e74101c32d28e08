// Package tiledbstore exports built trajectories to TileDB arrays, one
// dense array per entity. This is a non-core domain sink, kept outside the
// core decode/trajectory path, so this package
// only ever consumes acmi's public Trajectory type and is never imported
// back by the acmi package itself.
package tiledbstore

import (
	"fmt"
	"path/filepath"
	"reflect"

	tiledb "github.com/TileDB-Inc/TileDB-Go"
	stgpsr "github.com/yuin/stagparser"

	"github.com/pkg/errors"

	"github.com/skyfathom/go-acmi"
)

var ErrCreateArray = errors.New("tiledbstore: error creating trajectory array")
var ErrWriteArray = errors.New("tiledbstore: error writing trajectory array")

// trajectoryRows is the column-oriented, struct-tagged shape TileDB writes
// from, using a `tiledb:"dtype=...,ftype=attr" filters:"zstd(level=N)"`
// tag vocabulary to drive attribute and filter construction by reflection.
type trajectoryRows struct {
	TimestampNanos []int64   `tiledb:"dtype=int64,ftype=attr" filters:"zstd(level=16)"`
	PosX           []float64 `tiledb:"dtype=float64,ftype=attr" filters:"zstd(level=16)"`
	PosY           []float64 `tiledb:"dtype=float64,ftype=attr" filters:"zstd(level=16)"`
	PosZ           []float64 `tiledb:"dtype=float64,ftype=attr" filters:"zstd(level=16)"`
	OrientX        []float64 `tiledb:"dtype=float64,ftype=attr" filters:"zstd(level=16)"`
	OrientY        []float64 `tiledb:"dtype=float64,ftype=attr" filters:"zstd(level=16)"`
	OrientZ        []float64 `tiledb:"dtype=float64,ftype=attr" filters:"zstd(level=16)"`
	OrientW        []float64 `tiledb:"dtype=float64,ftype=attr" filters:"zstd(level=16)"`
	HasOrientation []uint8   `tiledb:"dtype=uint8,ftype=attr" filters:"zstd(level=16)"`
}

func rowsFromTrajectory(t acmi.Trajectory) trajectoryRows {
	n := len(t.Samples)
	rows := trajectoryRows{
		TimestampNanos: make([]int64, n),
		PosX:           make([]float64, n),
		PosY:           make([]float64, n),
		PosZ:           make([]float64, n),
		OrientX:        make([]float64, n),
		OrientY:        make([]float64, n),
		OrientZ:        make([]float64, n),
		OrientW:        make([]float64, n),
		HasOrientation: make([]uint8, n),
	}

	for i, s := range t.Samples {
		rows.TimestampNanos[i] = s.Time.Time().UnixNano()
		rows.PosX[i] = s.State.PositionEcef.X
		rows.PosY[i] = s.State.PositionEcef.Y
		rows.PosZ[i] = s.State.PositionEcef.Z

		if s.State.Orientation != nil {
			rows.OrientX[i] = s.State.Orientation.X
			rows.OrientY[i] = s.State.Orientation.Y
			rows.OrientZ[i] = s.State.Orientation.Z
			rows.OrientW[i] = s.State.Orientation.W
			rows.HasOrientation[i] = 1
		} else {
			rows.OrientW[i] = 1
		}
	}

	return rows
}

// WriteAll exports every non-empty trajectory to its own dense TileDB
// array under dirURI, named by hex entity id, one array per entity rather
// than one array per file.
func WriteAll(trajectories map[uint64]acmi.Trajectory, dirURI string, ctx *tiledb.Context) error {
	for id, traj := range trajectories {
		if len(traj.Samples) == 0 {
			continue
		}
		uri := filepath.Join(dirURI, fmt.Sprintf("%x.tiledb", id))
		rows := rowsFromTrajectory(traj)
		if err := rows.writeTo(uri, ctx); err != nil {
			return errors.Wrapf(err, "entity %x", id)
		}
	}
	return nil
}

func (r *trajectoryRows) writeTo(fileURI string, ctx *tiledb.Context) error {
	nrows := uint64(len(r.TimestampNanos))

	if err := r.createArray(fileURI, ctx, nrows); err != nil {
		return err
	}

	array, err := tiledb.NewArray(ctx, fileURI)
	if err != nil {
		return errors.Wrap(err, "opening array")
	}
	defer array.Free()

	if err := array.Open(tiledb.TILEDB_WRITE); err != nil {
		return errors.Wrap(err, "opening array for write")
	}
	defer array.Close()

	query, err := tiledb.NewQuery(ctx, array)
	if err != nil {
		return errors.Wrap(ErrWriteArray, err.Error())
	}
	defer query.Free()

	if err := query.SetLayout(tiledb.TILEDB_ROW_MAJOR); err != nil {
		return errors.Wrap(err, "setting query layout")
	}

	if err := setRowBuffers(query, r); err != nil {
		return err
	}

	subarr, err := array.NewSubarray()
	if err != nil {
		return errors.Wrap(err, "creating subarray")
	}
	defer subarr.Free()

	if err := subarr.AddRangeByName("__tiledb_rows", tiledb.MakeRange(uint64(0), nrows-1)); err != nil {
		return errors.Wrap(err, "setting subarray range")
	}
	if err := query.SetSubarray(subarr); err != nil {
		return errors.Wrap(err, "setting query subarray")
	}

	if err := query.Submit(); err != nil {
		return errors.Wrap(err, "submitting query")
	}
	return errors.Wrap(query.Finalize(), "finalizing query")
}

// createArray builds the dense, row-dimensioned array schema, one
// attribute per trajectoryRows field, trimmed to the single zstd filter
// every field here uses.
func (r *trajectoryRows) createArray(fileURI string, ctx *tiledb.Context, nrows uint64) error {
	tileSize := nrows
	if tileSize > 50000 {
		tileSize = 50000
	}

	domain, err := tiledb.NewDomain(ctx)
	if err != nil {
		return errors.Wrap(ErrCreateArray, err.Error())
	}
	defer domain.Free()

	dim, err := tiledb.NewDimension(ctx, "__tiledb_rows", tiledb.TILEDB_UINT64, []uint64{0, nrows - 1}, tileSize)
	if err != nil {
		return errors.Wrap(ErrCreateArray, err.Error())
	}
	defer dim.Free()

	if err := domain.AddDimensions(dim); err != nil {
		return errors.Wrap(ErrCreateArray, err.Error())
	}

	schema, err := tiledb.NewArraySchema(ctx, tiledb.TILEDB_DENSE)
	if err != nil {
		return errors.Wrap(ErrCreateArray, err.Error())
	}
	defer schema.Free()

	if err := schema.SetDomain(domain); err != nil {
		return errors.Wrap(ErrCreateArray, err.Error())
	}
	if err := schema.SetCellOrder(tiledb.TILEDB_ROW_MAJOR); err != nil {
		return errors.Wrap(ErrCreateArray, err.Error())
	}
	if err := schema.SetTileOrder(tiledb.TILEDB_ROW_MAJOR); err != nil {
		return errors.Wrap(ErrCreateArray, err.Error())
	}

	if err := addAttrsFromTags(r, schema, ctx); err != nil {
		return err
	}

	array, err := tiledb.NewArray(ctx, fileURI)
	if err != nil {
		return errors.Wrap(ErrCreateArray, err.Error())
	}
	defer array.Free()

	return errors.Wrap(array.Create(schema), "creating array")
}

// addAttrsFromTags walks t's exported fields via reflection and creates
// one TileDB attribute per field, configured by its `tiledb`/`filters`
// struct tags, trimmed to the zstd-only filter vocabulary every field in
// this package's structs actually uses.
func addAttrsFromTags(t any, schema *tiledb.ArraySchema, ctx *tiledb.Context) error {
	values := reflect.ValueOf(t).Elem()
	types := values.Type()

	filterDefs, err := stgpsr.ParseStruct(t, "filters")
	if err != nil {
		return errors.Wrap(ErrCreateArray, err.Error())
	}
	tdbDefs, err := stgpsr.ParseStruct(t, "tiledb")
	if err != nil {
		return errors.Wrap(ErrCreateArray, err.Error())
	}

	for i := 0; i < values.NumField(); i++ {
		name := types.Field(i).Name

		fieldTdb := make(map[string]stgpsr.Definition)
		for _, d := range tdbDefs[name] {
			fieldTdb[d.Name()] = d
		}

		def, ok := fieldTdb["ftype"]
		if !ok {
			return errors.Wrapf(ErrCreateArray, "field %s: ftype tag not found", name)
		}
		ftype, _ := def.Attribute("ftype")
		if ftype == "dim" {
			continue
		}

		if err := createAttr(name, filterDefs[name], fieldTdb, schema, ctx); err != nil {
			return errors.Wrapf(err, "field %s", name)
		}
	}

	return nil
}

var tiledbDtypes = map[string]tiledb.Datatype{
	"int8":    tiledb.TILEDB_INT8,
	"uint8":   tiledb.TILEDB_UINT8,
	"int16":   tiledb.TILEDB_INT16,
	"uint16":  tiledb.TILEDB_UINT16,
	"int32":   tiledb.TILEDB_INT32,
	"uint32":  tiledb.TILEDB_UINT32,
	"int64":   tiledb.TILEDB_INT64,
	"uint64":  tiledb.TILEDB_UINT64,
	"float32": tiledb.TILEDB_FLOAT32,
	"float64": tiledb.TILEDB_FLOAT64,
}

// createAttr creates one TileDB attribute and its zstd compression filter,
// per the `dtype`/`ftype` and `zstd(level=N)` tags on the struct field.
func createAttr(fieldName string, filterDefs []stgpsr.Definition, tiledbDefs map[string]stgpsr.Definition, schema *tiledb.ArraySchema, ctx *tiledb.Context) error {
	def, ok := tiledbDefs["dtype"]
	if !ok {
		return errors.New("dtype tag not found")
	}
	dtypeName, _ := def.Attribute("dtype")
	dtype, ok := tiledbDtypes[fmt.Sprint(dtypeName)]
	if !ok {
		return errors.Errorf("unsupported dtype %v", dtypeName)
	}

	filters, err := tiledb.NewFilterList(ctx)
	if err != nil {
		return err
	}
	defer filters.Free()

	for _, fd := range filterDefs {
		if fd.Name() != "zstd" {
			continue
		}
		level, ok := fd.Attribute("level")
		if !ok {
			return errors.New("zstd level not defined")
		}
		filt, err := tiledb.NewFilter(ctx, tiledb.TILEDB_FILTER_ZSTD)
		if err != nil {
			return err
		}
		defer filt.Free()
		if err := filt.SetOption(tiledb.TILEDB_COMPRESSION_LEVEL, int32(level.(int64))); err != nil {
			return err
		}
		if err := filters.AddFilter(filt); err != nil {
			return err
		}
	}

	attr, err := tiledb.NewAttribute(ctx, fieldName, dtype)
	if err != nil {
		return err
	}
	defer attr.Free()

	if err := attr.SetFilterList(filters); err != nil {
		return err
	}

	return schema.AddAttributes(attr)
}

func setRowBuffers(query *tiledb.Query, r *trajectoryRows) error {
	buffers := map[string]any{
		"TimestampNanos": r.TimestampNanos,
		"PosX":           r.PosX,
		"PosY":           r.PosY,
		"PosZ":           r.PosZ,
		"OrientX":        r.OrientX,
		"OrientY":        r.OrientY,
		"OrientZ":        r.OrientZ,
		"OrientW":        r.OrientW,
		"HasOrientation": r.HasOrientation,
	}

	for name, buf := range buffers {
		var err error
		switch v := buf.(type) {
		case []int64:
			_, err = query.SetDataBuffer(name, v)
		case []float64:
			_, err = query.SetDataBuffer(name, v)
		case []uint8:
			_, err = query.SetDataBuffer(name, v)
		}
		if err != nil {
			return errors.Wrapf(ErrWriteArray, "field %s: %s", name, err)
		}
	}

	return nil
}
