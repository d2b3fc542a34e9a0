package sqlinline

const QHealthcheck = `--sql 9a0e6b3d-2f18-47c6-b5d4-1c8e7a9f0b22
select 1;
`
