// Package builtin carries the canonical `std` source every Schema loads
// ahead of user sources. Parsing it alongside an empty normal source
// produces no diagnostics.
package builtin

// Std is the builtin source's text. It declares the field/model-level
// decorators, the pipeline items, and the middleware every generated
// schema can reference without an explicit import.
const Std = `namespace std {
    decorator id()
    decorator unique()
    decorator default(value: Any)
    decorator autoIncrement()
    decorator updatedAt()
    decorator relation(fields: Any[], references: Any[])
    decorator map(name: String)
    decorator omit()
    decorator hidden()
    decorator readonly()
    decorator validate(rule: Any)

    pipelineitem trim(): String -> String
    pipelineitem lowercase(): String -> String
    pipelineitem uppercase(): String -> String
    pipelineitem hash(): String -> String

    middleware logger()
    middleware auth(role: String)
    middleware cors()

    config server {
        bind {
            host: "0.0.0.0",
            port: 5300,
            pathPrefix: null
        }
    }

    config connector {
        source {
            provider: "sqlite",
            url: "sqlite::memory:"
        }
    }
}
`
