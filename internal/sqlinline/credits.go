package sqlinline

const QSelectCreditBalance = `--sql 7f4b2e19-6d3a-4c85-a2f0-9e1d5b8c3a66
select coalesce(balance, 0)
from user_credits
where user_id = $1::uuid;
`
