package catalog

// Text columns replace ';' with a space inside the query so the exported
// files never carry the field delimiter inside a value.

func builtinJobs() []Job {
	return []Job{
		// Entities
		{Name: "Artículos", Group: GroupEntities, Query: queryArticulos},
		{Name: "Categoría", Group: GroupEntities, Query: `SELECT CodigoCategoria, REPLACE(Descripcion,';',' ') FROM InvCategoria`},
		{Name: "Control Sanitario", Group: GroupEntities, Query: `SELECT CodigoControl, REPLACE(Descripcion,';',' ') FROM InvControlSanitario`},
		{Name: "Marcas", Group: GroupEntities, Query: `SELECT Codigo, REPLACE(Nombre,';',' '), CASE WHEN Nota IS NULL THEN 'NULL' ELSE REPLACE(Nota,';',' ') END FROM InvMarca`},
		{Name: "Usos", Group: GroupEntities, Query: `SELECT Codigo, REPLACE(Descripcion,';',' ') FROM InvUso`},
		{Name: "Proveedores", Group: GroupEntities, Query: queryProveedores},
		{Name: "Principios Activos", Group: GroupEntities, Query: `SELECT Codigo, REPLACE(Nombre,';',' '), CAST(SustanciaControlada as int) FROM InvComponente`},
		{Name: "Bancos", Group: GroupEntities, Query: `SELECT Codigo, REPLACE(Descripcion,';',' '), REPLACE(Nombre,';',' '), tipoConfiguracion, estado FROM BanBanco`},
		{Name: "Forma de Pago", Group: GroupEntities, Query: queryFormaDePago},

		// Relations
		{Name: "Artículos - Categorías", Group: GroupRelations, Query: `SELECT CodigoArticulo, CodigoCategoria FROM InvArticulo JOIN InvCategoria on InvCategoria.Id = InvArticulo.InvCategoriaId`},
		{Name: "Artículos - Códigos de Barras", Group: GroupRelations, Query: queryCodigosDeBarras},
		{Name: "Artículos - Componentes", Group: GroupRelations, Query: `select InvArticulo.CodigoArticulo, InvComponente.Codigo from InvArticuloComponente join InvComponente on InvComponente.Id = InvArticuloComponente.InvComponenteId join InvArticulo on InvArticulo.Id = InvArticuloComponente.InvArticuloId`},
		{Name: "Artículos - Control Sanitario", Group: GroupRelations, Query: `SELECT CodigoArticulo, InvControlSanitario.CodigoControl FROM InvArticulo JOIN InvControlSanitario on InvControlSanitario.Id = InvArticulo.InvControlSanitarioId`},
		{Name: "Artículos - Marcas", Group: GroupRelations, Query: `SELECT CodigoArticulo, Codigo FROM InvArticulo JOIN InvMarca on InvMarca.Id = InvArticulo.InvMarcaId`},
		{Name: "Artículos - Principio Activo", Group: GroupRelations, Query: `SELECT CodigoArticulo, InvComponente.Codigo FROM InvArticuloComponente JOIN InvArticulo on InvArticulo.Id = InvArticuloComponente.InvArticuloId JOIN InvComponente on InvComponente.Id = InvArticuloComponente.InvComponenteId`},
		{Name: "Artículos - Unidades de Medida", Group: GroupRelations, Query: `SELECT CodigoArticulo, 'UN', 'UFF', CAST(FactorConversion as int), 'UN', 1 FROM InvArticuloUnidad UN JOIN InvArticulo ART ON UN.InvArticuloId = ART.Id WHERE FactorConversion > 1`},
		{Name: "Artículos - Usos", Group: GroupRelations, Query: `SELECT CodigoArticulo, InvUso.Codigo FROM InvArticuloUso JOIN InvArticulo on InvArticulo.Id = InvArticuloUso.InvArticuloId JOIN InvUso on InvUso.Id = InvArticuloUso.InvUsoId`},
		{Name: "Artículos - Impuesto", Group: GroupRelations, Query: queryImpuesto},
		{Name: "Artículos - Atributos (Medicina)", Group: GroupRelations, Query: attributeQuery("Medicina")},
		{Name: "Artículos - Atributos (Genérico)", Group: GroupRelations, Query: attributeQuery("Genérico")},
	}
}

// attributeQuery lists the articles tagged with one attribute. The attribute
// is a compile-time constant, never operator input.
func attributeQuery(attribute string) string {
	return `SELECT InvArticulo.CodigoArticulo FROM InvArticulo ` +
		`JOIN InvArticuloAtributo ON InvArticuloAtributo.InvArticuloId = InvArticulo.Id ` +
		`JOIN InvAtributo ON InvAtributo.Id = InvArticuloAtributo.InvAtributoId ` +
		`WHERE InvAtributo.Descripcion = '` + attribute + `' ORDER BY InvArticulo.CodigoArticulo ASC`
}

const queryArticulos = `SELECT CodigoArticulo, REPLACE(Descripcion,';',' '), ` +
	`REPLACE(DescripcionLarga,';',' '), CPE, PermisoSanitario, ` +
	`CAST(ValorMaximo as int), CAST(ValorMinimo as int), ` +
	`CASE WHEN DerechoOferta IS NULL THEN 'NULL' ELSE CAST(DerechoOferta as int) END, ` +
	`CAST(GenerarEtiquetaCompras as int) ` +
	`FROM InvArticulo JOIN InvMinMax on InvMinMax.InvArticuloId = InvArticulo.Id`

// Suppliers are de-duplicated by fiscal id and normalized name, keeping the
// lowest supplier code.
const queryProveedores = `WITH ProveedoresLimpios AS (
    SELECT
        CodigoProveedor,
        REPLACE(Nombre,';',' ') AS NombreLimpio,
        CASE WHEN Apellido IS NULL THEN 'NULL' ELSE REPLACE(Apellido,';',' ') END AS ApellidoLimpio,
        REPLACE(IdentificacionFiscal,';',' ') AS IdentificacionFiscalLimpia,
        Telefono,
        Representante,
        Contactos,
        CASE WHEN NombreEnCheque IS NULL THEN 'NULL' ELSE REPLACE(NombreEnCheque,';',' ') END AS NombreEnChequeLimpio,
        TipoContribuyente,
        TipoPersona,
        tipoProveedor,
        ROW_NUMBER() OVER (
            PARTITION BY
                REPLACE(IdentificacionFiscal,';',' '),
                UPPER(REPLACE(REPLACE(Nombre,';',' '), ' ', ''))
            ORDER BY CodigoProveedor ASC
        ) AS FilaNum
    FROM ComProveedor AS cp
    JOIN GenPersona AS g ON g.Id = cp.GenPersonaId
)
SELECT
    CodigoProveedor,
    NombreLimpio,
    ApellidoLimpio,
    IdentificacionFiscalLimpia,
    Telefono,
    Representante,
    Contactos,
    NombreEnChequeLimpio,
    TipoContribuyente,
    TipoPersona,
    tipoProveedor
FROM ProveedoresLimpios
WHERE FilaNum = 1
ORDER BY CodigoProveedor ASC`

const queryFormaDePago = `SELECT Codigo, Nombre, Descripcion, estado, tipoFormaPago, ` +
	`AplicaRetencion, PorcentajeRetencion, AplicaComisionFormaPago, PorcentajeComisionFormaPago, ` +
	`CodigoImpresoraFiscal, AplicaIva ` +
	`FROM BanFormaPago WHERE Codigo IN ('FP01','FP02','FP03','FP04','FP05','FP06','FP07')`

// One row per barcode: the principal article wins, then the lowest code.
const queryCodigosDeBarras = `WITH CodigosBarrasLimpios AS (
    SELECT
        CodigoArticulo,
        CodigoBarra,
        CAST(EsPrincipal as int) AS EsPrincipal,
        ROW_NUMBER() OVER (
            PARTITION BY CodigoBarra
            ORDER BY EsPrincipal DESC, CodigoArticulo ASC
        ) AS FilaNum
    FROM InvArticulo
    JOIN InvCodigoBarra on InvCodigoBarra.InvArticuloId = InvArticulo.Id
    WHERE CodigoBarra IS NOT NULL AND CodigoBarra != ''
)
SELECT CodigoArticulo, CodigoBarra, EsPrincipal
FROM CodigosBarrasLimpios
WHERE FilaNum = 1`

const queryImpuesto = `SELECT ex.CodigoArticulo, ` +
	`CAST(MAX(ex.tarifaI) AS NUMERIC(10,2)) as TarifaCompra, ` +
	`CAST(MAX(ex.tarifaV) AS NUMERIC(10,2)) as TarifaVenta ` +
	`FROM ( SELECT a.CodigoArticulo, ` +
	`CASE WHEN MAX(fcv.TarifaImpuesto) IS NULL THEN 0 ELSE CAST(MAX(fcv.TarifaImpuesto) AS DECIMAL(10,2)) END as tarifaI, ` +
	`CASE WHEN MAX(fcv2.TarifaImpuesto) IS NULL THEN 0 ELSE CAST(MAX(fcv2.TarifaImpuesto) AS DECIMAL(10,2)) END as tarifaV ` +
	`FROM InvArticulo a ` +
	`LEFT JOIN FinConceptoVigencia fcv ON fcv.FinConceptoImptoId = a.FinConceptoImptoIdCompra ` +
	`LEFT JOIN FinConceptoVigencia fcv2 ON fcv2.FinConceptoImptoId = a.FinConceptoImptoIdVenta ` +
	`GROUP BY a.CodigoArticulo ) as ex GROUP BY ex.CodigoArticulo`
