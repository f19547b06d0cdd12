package lightcurve

// Row is a flattened photometric observation used by the ClickHouse and
// Parquet pipelines. Field order matches the sndata.observations table.
type Row struct {
	Survey  string  `ch:"survey" parquet:"survey"`
	Release string  `ch:"release" parquet:"release"`
	ObjID   string  `ch:"obj_id" parquet:"obj_id"`
	Time    float64 `ch:"time" parquet:"time"`
	Band    string  `ch:"band" parquet:"band"`
	Flux    float64 `ch:"flux" parquet:"flux"`
	FluxErr float64 `ch:"fluxerr" parquet:"fluxerr"`
	ZP      float64 `ch:"zp" parquet:"zp"`
	ZPSys   string  `ch:"zpsys" parquet:"zpsys"`
	RA      float64 `ch:"ra" parquet:"ra"`
	Dec     float64 `ch:"dec" parquet:"dec"`
	Z       float64 `ch:"z" parquet:"z"`
}

// Rows flattens a light curve into export rows. Missing coordinate and
// redshift metadata flattens to NaN-free zero values so the columns stay
// non-nullable downstream.
func (p *Photometry) Rows(survey, release string) []Row {
	rows := make([]Row, 0, len(p.Obs))
	for _, o := range p.Obs {
		rows = append(rows, Row{
			Survey:  survey,
			Release: release,
			ObjID:   p.Meta.ObjID,
			Time:    o.Time,
			Band:    o.Band,
			Flux:    o.Flux,
			FluxErr: o.FluxErr,
			ZP:      o.ZP,
			ZPSys:   o.ZPSys,
			RA:      deref(p.Meta.RA),
			Dec:     deref(p.Meta.Dec),
			Z:       deref(p.Meta.Z),
		})
	}
	return rows
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
